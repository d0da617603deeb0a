package agent

import "errors"

var errNoCurrency = errors.New("agent: no currency deduced/set; cannot adjust balance")
