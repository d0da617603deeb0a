package market

import "holosim/internal/common"

// TradePair is one settled match: the buyer's half and the seller's half,
// always at the same price and (symmetric) amount. Defined in common (not
// here) so that common.Exchange's ExecuteAll signature doesn't need this
// package, which common is itself imported by.
type TradePair = common.TradePair

// Tradable is what an Exchange routes orders to. *Market implements it
// directly; reserve.Reserve implements it by embedding a *Market and
// layering ladder-repost behavior onto ExecuteAll.
type Tradable interface {
	Name() string
	Currency() string
	Enter(order common.Trade, update bool) error
	Buy(agent common.Recorder, amount int64, price common.Price, now float64, update bool) error
	Sell(agent common.Recorder, amount int64, price common.Price, now float64, update bool) error
	Close(agent common.Recorder, security string) error
	Orders(agent common.Recorder) []common.Trade
	Price() common.Prices
	ExecuteAll(now float64, record bool) []TradePair
	FormatBook(width int) string
}

// buyIndex translates the bid probe offset (always negative, from the end of
// buying) used throughout matching into a slice index; the ask offset
// (always non-negative, from the front of selling) is used as an index
// directly.
func (m *Market) buyIndex(bid int) int { return len(m.buying) + bid }

func (m *Market) tradePossible(bid, ask int) bool {
	if bid >= 0 || ask < 0 {
		return false
	}
	bi := m.buyIndex(bid)
	if bi < 0 || bi >= len(m.buying) || ask >= len(m.selling) {
		return false
	}
	buyOrder := m.buying[bi]
	sellOrder := m.selling[ask]
	if sellOrder.Price.IsMarket() || buyOrder.Price.IsMarket() {
		return true
	}
	return sellOrder.Price.Value.LessThanOrEqual(buyOrder.Price.Value)
}

func (m *Market) compatible(bid, ask int) bool {
	buyer := m.buying[m.buyIndex(bid)].Agent
	seller := m.selling[ask].Agent
	return agentsCompatible(buyer, seller)
}

// agentsCompatible asks the seller whether it sells to the buyer, and the
// buyer whether it buys from the seller; an agent that implements neither
// predicate is compatible with everyone.
func agentsCompatible(buyer, seller common.Recorder) bool {
	sr, sellerChecks := seller.(common.SellRestricted)
	br, buyerChecks := buyer.(common.BuyRestricted)
	if sellerChecks && !sr.SellsTo(buyer) {
		return false
	}
	if buyerChecks && !br.BuysFrom(seller) {
		return false
	}
	return true
}

// MatchStep attempts exactly one trade. It starts at the best bid/ask
// (bid=-1, ask=0) and steps inward while a compatible trade is possible but
// the parties at the current depth are not compatible, then settles the
// first compatible, price-overlapping pair it finds. Returns ok=false if no
// trade is currently possible between any willing participants.
//
// This restarts the probe from the book's true best bid/ask on every call,
// rather than resuming a deeper probe depth across successive matches the
// way the original's nested generator did (an optimization to avoid
// re-walking past already-rejected incompatible parties). Because the
// original's outer loop re-walks from the top after every single yielded
// trade anyway, the two produce the same trade sequence; this is simpler to
// reason about as a single "do one step" entry point.
func (m *Market) MatchStep(now float64) (TradePair, bool) {
	bid, ask := -1, 0
	for m.tradePossible(bid, ask) && !m.compatible(bid, ask) {
		if bid+ask == 0 {
			bid--
		} else {
			ask++
		}
	}
	if !m.tradePossible(bid, ask) {
		return TradePair{}, false
	}
	return m.matchAt(bid, ask, now)
}

func (m *Market) matchAt(bid, ask int, now float64) (TradePair, bool) {
	bi := m.buyIndex(bid)
	buyOrder := m.buying[bi]
	sellOrder := m.selling[ask]

	amount := buyOrder.Amount
	if -sellOrder.Amount < amount {
		amount = -sellOrder.Amount
	}

	price, ok := m.resolvePrice(buyOrder, sellOrder)
	if !ok {
		// No concrete price available anywhere and no last trade either:
		// this pair (and, by construction, the whole book at this depth)
		// cannot presently be priced.
		return TradePair{}, false
	}

	m.transactions++
	buy := common.Trade{Security: m.name, Price: price, Currency: m.currency, Time: now, Amount: amount, Agent: buyOrder.Agent}
	sell := common.Trade{Security: m.name, Price: price, Currency: m.currency, Time: now, Amount: -amount, Agent: sellOrder.Agent}
	m.last = &buy

	if amount == buyOrder.Amount {
		m.buying = append(m.buying[:bi], m.buying[bi+1:]...)
	} else {
		m.buying[bi].Amount -= amount
	}
	if amount == -sellOrder.Amount {
		m.selling = append(m.selling[:ask], m.selling[ask+1:]...)
	} else {
		m.selling[ask].Amount += amount
	}

	m.logger.Debug().
		Str("buyer", buy.Agent.Identity()).
		Str("seller", sell.Agent.Identity()).
		Int64("amount", amount).
		Str("price", price.String()).
		Msg("matched")

	return TradePair{Buy: buy, Sell: sell}, true
}

// resolvePrice implements the spread-allocation rule: whichever side
// entered the market first ("took the greater risk") gets the other side's
// limit price; if that side is itself a market order, the earlier side
// falls back to its own price, and if that's also a market order, the best
// priced order on the opposing book (the best ask if the buyer was first,
// the best bid otherwise) sets the price. Failing all of that, the last
// executed trade's price is used; with no last trade, no price can be
// determined.
func (m *Market) resolvePrice(buyOrder, sellOrder common.Trade) (common.Price, bool) {
	var price common.Price
	if buyOrder.Time < sellOrder.Time {
		price = sellOrder.Price
		if price.IsMarket() {
			price = buyOrder.Price
			if price.IsMarket() {
				price = firstPriced(m.selling)
			}
		}
	} else {
		price = buyOrder.Price
		if price.IsMarket() {
			price = sellOrder.Price
			if price.IsMarket() {
				price = lastPriced(m.buying)
			}
		}
	}
	if price.IsMarket() {
		if m.last == nil {
			return common.Price{}, false
		}
		price = m.last.Price
	}
	return price, true
}

// firstPriced scans ascending (front to back) for the first non-market
// price: "the best available ask" (the newest at a tied price, since the
// selling book breaks ties by descending time).
func firstPriced(orders []common.Trade) common.Price {
	for _, o := range orders {
		if !o.Price.IsMarket() {
			return o.Price
		}
	}
	return common.MarketPrice()
}

// lastPriced scans descending (back to front) for the first non-market
// price: "the best available bid".
func lastPriced(orders []common.Trade) common.Price {
	for i := len(orders) - 1; i >= 0; i-- {
		if !orders[i].Price.IsMarket() {
			return orders[i].Price
		}
	}
	return common.MarketPrice()
}

// ExecuteAll drives MatchStep to exhaustion, optionally recording each
// settled half-trade with its originating agent, and returns every pair
// matched.
func (m *Market) ExecuteAll(now float64, record bool) []TradePair {
	var trades []TradePair
	for {
		pair, ok := m.MatchStep(now)
		if !ok {
			break
		}
		if record {
			pair.Buy.Agent.Record(pair.Buy)
			pair.Sell.Agent.Record(pair.Sell)
		}
		trades = append(trades, pair)
	}
	return trades
}

// Transactions returns the running count of settled trades in this market.
func (m *Market) Transactions() uint64 { return m.transactions }
