package synth

import (
	"errors"
	"fmt"
)

// Sentinel errors for construction and wiring mistakes.
var (
	ErrUnknownCurve = errors.New("unknown curve law")
	ErrUnknownParam = errors.New("unknown parameter")
	ErrEmptyTable   = errors.New("lookup table is empty")
	ErrBadRange     = errors.New("invalid parameter range")
)

// ConfigError reports a programming error in how a variable or settings
// value was put together. It is never produced by out-of-range input,
// which is clamped instead.
type ConfigError struct {
	Op    string // "new-variable", "value", "set-visual", ...
	Param string
	Cause error
}

func (e *ConfigError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("synth: %s %s: %v", e.Op, e.Param, e.Cause)
	}
	return fmt.Sprintf("synth: %s: %v", e.Op, e.Cause)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

func configErr(op, param string, cause error) *ConfigError {
	return &ConfigError{Op: op, Param: param, Cause: cause}
}
