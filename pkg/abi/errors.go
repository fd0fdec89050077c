package abi

import (
	"errors"
	"fmt"
)

var (
	ErrDecode = errors.New("abi: decode failed")
)

// DecodeError describes why a payload could not be decoded.
type DecodeError struct {
	Reason string
}

func newDecodeError(format string, args ...any) *DecodeError {
	return &DecodeError{Reason: fmt.Sprintf(format, args...)}
}

func (e *DecodeError) Error() string {
	return "abi: " + e.Reason
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}
