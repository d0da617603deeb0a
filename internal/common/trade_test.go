package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeRecorder struct {
	id      string
	trades  []Trade
	sellsTo func(Recorder) bool
}

func (f *fakeRecorder) Identity() string    { return f.id }
func (f *fakeRecorder) Record(t Trade)      { f.trades = append(f.trades, t) }
func (f *fakeRecorder) SellsTo(o Recorder) bool {
	if f.sellsTo == nil {
		return true
	}
	return f.sellsTo(o)
}

func TestSameAgent(t *testing.T) {
	a := &fakeRecorder{id: "alice"}
	b := &fakeRecorder{id: "alice"}
	c := &fakeRecorder{id: "bob"}
	assert.True(t, SameAgent(a, b), "identity equality, not pointer equality")
	assert.False(t, SameAgent(a, c))
	assert.False(t, SameAgent(nil, a))
}

func TestPricesBestIgnoresMarketAndNil(t *testing.T) {
	bid := Trade{Price: LimitPrice(dec("4.00"))}
	ask := Trade{Price: LimitPrice(dec("5.00"))}
	last := Trade{Price: MarketPrice()}

	p := Prices{Bid: &bid, Ask: &ask, Last: &last}
	best, ok := p.Best()
	assert.True(t, ok)
	assert.True(t, best.Equal(dec("5.00")))

	empty := Prices{}
	_, ok = empty.Best()
	assert.False(t, ok)
}

func TestTradeString(t *testing.T) {
	agent := &fakeRecorder{id: "alice"}
	buy := Trade{Security: "HOT", Price: LimitPrice(dec("1.0000")), Currency: "USD", Amount: 10, Agent: agent}
	assert.Contains(t, buy.String(), "buy")
	assert.Contains(t, buy.String(), "HOT")

	sell := Trade{Security: "HOT", Price: LimitPrice(dec("1.0000")), Currency: "USD", Amount: -10, Agent: agent}
	assert.Contains(t, sell.String(), "sell")
}
