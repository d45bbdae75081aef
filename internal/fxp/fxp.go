// Package fxp encodes and decodes the forex price feed wire format.
//
// A datagram carries 1 to MaxQuotesPerMessage records of RecordSize bytes:
//
//	[0:8]   big-endian uint64 microseconds since the Unix epoch
//	[8:14]  ASCII currency pair, 3 bytes each
//	[14:22] little-endian IEEE-754 float64 rate
//	[22:32] unused
//
// A subscriber registers by sending its IPv4 address and big-endian port.
package fxp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"fxarb/internal/graph"
)

const (
	RecordSize          = 32
	MaxQuotesPerMessage = 50
	AddressSize         = 6
)

var ErrMalformed = errors.New("malformed datagram")

// Quote is one decoded price record.
type Quote struct {
	Timestamp time.Time
	Base      graph.Currency
	Quote     graph.Currency
	Rate      float64
}

// Unmarshal decodes every record in a datagram. The whole datagram is
// rejected if any record is invalid.
func Unmarshal(b []byte) ([]Quote, error) {
	if len(b) == 0 || len(b)%RecordSize != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of %d", ErrMalformed, len(b), RecordSize)
	}
	n := len(b) / RecordSize
	if n > MaxQuotesPerMessage {
		return nil, fmt.Errorf("%w: %d records exceeds %d", ErrMalformed, n, MaxQuotesPerMessage)
	}
	out := make([]Quote, 0, n)
	for i := 0; i < n; i++ {
		q, err := decodeRecord(b[i*RecordSize : (i+1)*RecordSize])
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformed, i, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func decodeRecord(r []byte) (Quote, error) {
	micros := binary.BigEndian.Uint64(r[0:8])
	if micros > math.MaxInt64/1000 {
		return Quote{}, fmt.Errorf("timestamp %d out of range", micros)
	}
	base, err := currency(r[8:11])
	if err != nil {
		return Quote{}, err
	}
	quote, err := currency(r[11:14])
	if err != nil {
		return Quote{}, err
	}
	rate := math.Float64frombits(binary.LittleEndian.Uint64(r[14:22]))
	if rate == 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return Quote{}, fmt.Errorf("unusable rate %v", rate)
	}
	return Quote{
		Timestamp: time.UnixMicro(int64(micros)).UTC(),
		Base:      base,
		Quote:     quote,
		Rate:      rate,
	}, nil
}

// currency treats codes as opaque: any printable, non-space ASCII is kept.
func currency(b []byte) (graph.Currency, error) {
	for _, c := range b {
		if c <= ' ' || c > '~' {
			return "", fmt.Errorf("bad currency code %q", b)
		}
	}
	return graph.Currency(b), nil
}

// AppendQuote appends the wire form of q to dst.
func AppendQuote(dst []byte, q Quote) []byte {
	var rec [RecordSize]byte
	binary.BigEndian.PutUint64(rec[0:8], uint64(q.Timestamp.UnixMicro()))
	copy(rec[8:11], q.Base)
	copy(rec[11:14], q.Quote)
	binary.LittleEndian.PutUint64(rec[14:22], math.Float64bits(q.Rate))
	return append(dst, rec[:]...)
}

// Marshal encodes quotes into one datagram.
func Marshal(quotes []Quote) ([]byte, error) {
	if len(quotes) == 0 || len(quotes) > MaxQuotesPerMessage {
		return nil, fmt.Errorf("fxp: %d quotes per datagram, want 1..%d", len(quotes), MaxQuotesPerMessage)
	}
	b := make([]byte, 0, len(quotes)*RecordSize)
	for _, q := range quotes {
		if len(q.Base) != 3 || len(q.Quote) != 3 {
			return nil, fmt.Errorf("fxp: pair %s%s is not two 3-letter codes", q.Base, q.Quote)
		}
		b = AppendQuote(b, q)
	}
	return b, nil
}

// SerializeAddress encodes a subscriber address for registration.
func SerializeAddress(addr *net.UDPAddr) ([]byte, error) {
	ip4 := addr.IP.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("fxp: %s is not an IPv4 address", addr.IP)
	}
	if addr.Port < 0 || addr.Port > math.MaxUint16 {
		return nil, fmt.Errorf("fxp: port %d out of range", addr.Port)
	}
	b := make([]byte, AddressSize)
	copy(b, ip4)
	binary.BigEndian.PutUint16(b[4:], uint16(addr.Port))
	return b, nil
}
