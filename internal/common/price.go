package common

import "github.com/shopspring/decimal"

// PriceKind distinguishes a market-price order (execute at whatever the book
// offers) from a limit order at a specific value. The original Python model
// used None/NaN as the market-price sentinel; decimal.Decimal has no NaN, so
// this is an explicit tagged union instead (spec's recommended design).
type PriceKind uint8

const (
	// Limited is a fixed-price order at Value.
	Limited PriceKind = iota
	// Market is an unpriced order: match at whatever the book determines.
	Market
)

// Price is either a Limited value or the Market sentinel.
type Price struct {
	Kind  PriceKind
	Value decimal.Decimal
}

// LimitPrice constructs a fixed-price Price.
func LimitPrice(value decimal.Decimal) Price {
	return Price{Kind: Limited, Value: value}
}

// MarketPrice constructs the market-price sentinel.
func MarketPrice() Price {
	return Price{Kind: Market}
}

// IsMarket reports whether p is the market-price sentinel.
func (p Price) IsMarket() bool {
	return p.Kind == Market
}

func (p Price) String() string {
	if p.IsMarket() {
		return "<market>"
	}
	return p.Value.StringFixed(4)
}

// lessNanLast orders prices the way buying books do: Market sorts after any
// Limited value (nan_last). Used only to compare two prices when at least
// one comparison direction is needed; ties (both Market, or equal Limited
// values) return false either way.
func lessNanLast(a, b Price) bool {
	switch {
	case a.IsMarket():
		return false
	case b.IsMarket():
		return true
	default:
		return a.Value.LessThan(b.Value)
	}
}

// lessNanFirst orders prices the way selling books do: Market sorts before
// any Limited value (nan_first).
func lessNanFirst(a, b Price) bool {
	switch {
	case a.IsMarket():
		return !b.IsMarket()
	case b.IsMarket():
		return false
	default:
		return a.Value.LessThan(b.Value)
	}
}

// BuyLess reports whether order a sorts before order b in a buying book:
// ascending by (nan_last(price), time).
func BuyLess(aPrice Price, aTime float64, bPrice Price, bTime float64) bool {
	if lessNanLast(aPrice, bPrice) {
		return true
	}
	if lessNanLast(bPrice, aPrice) {
		return false
	}
	return aTime < bTime
}

// SellLess reports whether order a sorts before order b in a selling book:
// ascending by (nan_first(price), -time).
func SellLess(aPrice Price, aTime float64, bPrice Price, bTime float64) bool {
	if lessNanFirst(aPrice, bPrice) {
		return true
	}
	if lessNanFirst(bPrice, aPrice) {
		return false
	}
	return aTime > bTime
}
