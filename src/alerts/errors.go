package alerts

import "errors"

// Data-integrity failures: the affected alert is skipped for the cycle,
// logged, and left in its prior state. None of these abort a batch.
var (
	ErrMissingPrice     = errors.New("no price recorded for asset")
	ErrMissingPosition  = errors.New("referenced position does not exist")
	ErrUnresolvedMetric = errors.New("portfolio metric key did not resolve")
	ErrUnsupportedType  = errors.New("alert type not supported for class")
)
