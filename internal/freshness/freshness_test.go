package freshness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestAcceptAdvancesWatermark(t *testing.T) {
	m := New(0)
	assert.Equal(t, DefaultWindow, m.Window())

	require.NoError(t, m.Accept(t0, "USD", "EUR"))
	assert.Equal(t, t0, m.Watermark())

	ts, ok := m.LastUpdate("EUR", "USD")
	require.True(t, ok)
	assert.Equal(t, t0, ts)
}

func TestAcceptRejectsOutOfSequence(t *testing.T) {
	m := New(DefaultWindow)
	require.NoError(t, m.Accept(t0, "USD", "EUR"))

	assert.ErrorIs(t, m.Accept(t0, "GBP", "CHF"), ErrOutOfSequence)
	assert.ErrorIs(t, m.Accept(t0.Add(-time.Millisecond), "USD", "EUR"), ErrOutOfSequence)

	assert.Equal(t, t0, m.Watermark())
	assert.Equal(t, 1, m.Len())
	_, ok := m.LastUpdate("GBP", "CHF")
	assert.False(t, ok)
}

func TestWatermarkIsGlobal(t *testing.T) {
	m := New(DefaultWindow)
	require.NoError(t, m.Accept(t0.Add(time.Second), "GBP", "CHF"))
	// An unrelated pair quoted earlier is refused.
	assert.ErrorIs(t, m.Accept(t0, "USD", "EUR"), ErrOutOfSequence)
}

func TestExpired(t *testing.T) {
	m := New(DefaultWindow)
	require.NoError(t, m.Accept(t0, "USD", "JPY"))
	require.NoError(t, m.Accept(t0.Add(100*time.Millisecond), "EUR", "USD"))
	require.NoError(t, m.Accept(t0.Add(time.Second), "GBP", "USD"))

	assert.Empty(t, m.Expired(t0.Add(1500*time.Millisecond)))

	got := m.Expired(t0.Add(1700 * time.Millisecond))
	assert.Equal(t, []Pair{{A: "EUR", B: "USD"}, {A: "JPY", B: "USD"}}, got)
	assert.Equal(t, 1, m.Len())

	_, ok := m.LastUpdate("USD", "JPY")
	assert.False(t, ok)
}

func TestPairIsUnordered(t *testing.T) {
	assert.Equal(t, NewPair("USD", "EUR"), NewPair("EUR", "USD"))
	assert.Equal(t, "EUR/USD", NewPair("USD", "EUR").String())
}
