package strategy

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks a fund whose quote cannot be evaluated.
var ErrInvalidInput = errors.New("invalid input")

// ReasonMissingQuote is reported when the previous NAV is absent or unusable.
const ReasonMissingQuote = "估值数据缺失"

// SkipError carries the display reason of a fund that was not evaluated.
type SkipError struct {
	Code   string
	Reason string
	Err    error
}

func (e *SkipError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func (e *SkipError) Unwrap() error {
	return e.Err
}

func skip(code, reason string) *SkipError {
	return &SkipError{Code: code, Reason: reason, Err: ErrInvalidInput}
}
