package reserve

import (
	"github.com/shopspring/decimal"

	"holosim/internal/common"
	"holosim/internal/market"
)

// IssuingReserve extends Reserve with a capped sell-side supply stream: each
// tick it computes net Issuance over the trailing supply period and, if
// that's below supply_available, posts a sell for the remainder at
// book_value * premium.
type IssuingReserve struct {
	*Reserve

	// SupplyBookValue is the reference value (in currency per unit) the
	// issue price is computed against.
	SupplyBookValue decimal.Decimal
	// SupplyPremium multiplies SupplyBookValue to get the issue price; may
	// be adjusted between ticks by external control logic (e.g. a PID
	// loop, per spec — never wired into the core loop by this package).
	SupplyPremium decimal.Decimal
	// SupplyPeriod is the trailing window, in simulation seconds, over
	// which net issuance is measured.
	SupplyPeriod float64
	// SupplyAvailable is the target net issuance per SupplyPeriod.
	SupplyAvailable int64
}

// IssuingOption configures a new IssuingReserve.
type IssuingOption func(*IssuingReserve)

func WithSupplyBookValue(v decimal.Decimal) IssuingOption {
	return func(ir *IssuingReserve) { ir.SupplyBookValue = v }
}

func WithSupplyPremium(v decimal.Decimal) IssuingOption {
	return func(ir *IssuingReserve) { ir.SupplyPremium = v }
}

func WithSupplyPeriod(seconds float64) IssuingOption {
	return func(ir *IssuingReserve) { ir.SupplyPeriod = seconds }
}

// NewIssuing constructs an IssuingReserve. supplyAvailable is the target net
// issuance per supply period (required: there is no sensible default).
func NewIssuing(name, identity string, tranches map[string]int64, supplyAvailable int64, now float64, opts ...IssuingOption) *IssuingReserve {
	ir := &IssuingReserve{
		Reserve:         New(name, identity, tranches, now),
		SupplyBookValue: decimal.NewFromInt(1),
		SupplyPremium:   decimal.NewFromInt(1),
		SupplyPeriod:    common.Hour,
		SupplyAvailable: supplyAvailable,
	}
	for _, opt := range opts {
		opt(ir)
	}
	ir.runSelf = func(now float64) bool { return ir.Run(nil, now) }
	ir.Run(nil, now)
	return ir
}

// Run closes and re-posts the retirement ladder (via the embedded
// Reserve.Run), then computes net issuance over the trailing supply period
// and sells the shortfall against target, at book value times premium.
func (ir *IssuingReserve) Run(exchange common.Exchange, now float64) bool {
	if !ir.Reserve.Run(exchange, now) {
		return false
	}
	buy, sell := ir.Agent.Volume(ir.Market.Name(), ir.SupplyPeriod, now)
	soldThisPeriod := sell - buy
	if remaining := ir.SupplyAvailable - soldThisPeriod; remaining > 0 {
		price := ir.SupplyBookValue.Mul(ir.SupplyPremium)
		ir.Market.Sell(ir, remaining, common.LimitPrice(price), now, false)
	}
	return true
}

var _ market.Tradable = (*IssuingReserve)(nil)
