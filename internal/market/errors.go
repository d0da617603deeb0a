package market

import "errors"

var (
	// ErrSelfTrade is returned by Enter when a new order would immediately
	// match one of the same agent's own resting orders.
	ErrSelfTrade = errors.New("market: order would match agent's own resting order")
	// ErrWrongSecurity is returned by Close when called with a security
	// name that does not belong to this market.
	ErrWrongSecurity = errors.New("market: security does not belong to this market")
)
