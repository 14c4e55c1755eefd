package models

import "errors"

// Input errors. They are never retried and are surfaced to callers as-is;
// degenerate-but-valid input (too few rows, zero volatility) is not an error.
var (
	ErrEmptyPrices     = errors.New("empty price series")
	ErrUnsortedDates   = errors.New("dates must be strictly increasing")
	ErrMisaligned      = errors.New("series are not aligned")
	ErrInvalidWindow   = errors.New("window must be at least 1")
	ErrNoData          = errors.New("no data for asset")
	ErrUnknownAsset    = errors.New("weight references asset absent from prices")
	ErrWeightsMismatch = errors.New("weights do not cover the selected assets")
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrInvalidDate     = errors.New("invalid date range")
)

var inputErrors = []error{
	ErrEmptyPrices, ErrUnsortedDates, ErrMisaligned, ErrInvalidWindow,
	ErrNoData, ErrUnknownAsset, ErrWeightsMismatch, ErrUnknownStrategy, ErrInvalidDate,
}

// IsInputError reports whether err wraps one of the input error sentinels.
func IsInputError(err error) bool {
	for _, e := range inputErrors {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
