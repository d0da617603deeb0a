package market

import (
	"sort"

	"holosim/internal/common"
)

// sortBuying sorts the buying book ascending by (nan_last(price), time), so
// the best bid (highest price, newest-at-tie) sits at the end of the slice.
func sortBuying(orders []common.Trade) {
	sort.SliceStable(orders, func(i, j int) bool {
		return common.BuyLess(orders[i].Price, orders[i].Time, orders[j].Price, orders[j].Time)
	})
}

// sortSelling sorts the selling book ascending by (nan_first(price), -time),
// so the best ask (lowest price, newest-at-tie) sits at the front of the
// slice.
func sortSelling(orders []common.Trade) {
	sort.SliceStable(orders, func(i, j int) bool {
		return common.SellLess(orders[i].Price, orders[i].Time, orders[j].Price, orders[j].Time)
	})
}
