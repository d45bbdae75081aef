package graph

func (p Paths) sourceName() Currency {
	if p.g == nil || p.source < 0 {
		return ""
	}
	return p.g.names[p.source]
}

// distance returns the log-weight distance to c; +Inf when unreachable.
func (p Paths) distance(c Currency) (float64, bool) {
	if p.g == nil {
		return 0, false
	}
	i, ok := p.g.index[c]
	if !ok || i >= len(p.dist) {
		return 0, false
	}
	return p.dist[i], true
}

// predecessor returns the vertex c was last relaxed from.
func (p Paths) predecessor(c Currency) (Currency, bool) {
	if p.g == nil {
		return "", false
	}
	i, ok := p.g.index[c]
	if !ok || i >= len(p.pred) || p.pred[i] == noPred {
		return "", false
	}
	return p.g.names[p.pred[i]], true
}

// signed returns the rate in the feed's signed-ratio convention.
func (r Rate) signed() float64 {
	if r.Direction == Forward {
		return -r.Magnitude
	}
	return r.Magnitude
}
