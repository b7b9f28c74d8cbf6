package errors

import (
	"errors"
	"fmt"
)

// SuccessABCICode is the code of a successful ABCI response.
const SuccessABCICode = 0

// Errors that do not wrap a registered error are internal. They share code
// 1 and outside of debug mode their message is hidden.
const (
	internalABCICode uint32 = 1
	internalABCILog         = "internal error"
)

type coder interface {
	ABCICode() uint32
}

// ABCICode walks the cause chain and returns the first code found.
// Unregistered errors are reported as internal.
func ABCICode(err error) uint32 {
	if isNilErr(err) {
		return SuccessABCICode
	}
	for err != nil {
		if c, ok := err.(coder); ok {
			return c.ABCICode()
		}
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Cause()
	}
	return internalABCICode
}

// ABCIInfo returns the code and log of an ABCI response for err. Debug
// mode prints the full error, including the stack trace when one was
// recorded. Otherwise internal errors are reduced to a generic message.
func ABCIInfo(err error, debug bool) (uint32, string) {
	if isNilErr(err) {
		return SuccessABCICode, ""
	}
	code := ABCICode(err)
	switch {
	case debug:
		return code, fmt.Sprintf("%+v", err)
	case code == internalABCICode:
		return code, internalABCILog
	default:
		return code, err.Error()
	}
}

// Redact hides the details of internal errors and panics from clients. It
// does nothing in debug mode.
func Redact(err error, debug bool) error {
	if debug {
		return err
	}
	if ErrPanic.Is(err) || ABCICode(err) == internalABCICode {
		return errors.New(internalABCILog)
	}
	return err
}

// FromABCI restores an error from the code and log of an ABCI response so
// that clients can test it with Is. Unknown codes become internal errors.
func FromABCI(code uint32, log string) error {
	if code == SuccessABCICode {
		return nil
	}
	if e, ok := usedCodes[code]; ok && code != internalABCICode {
		return Wrap(e, log)
	}
	return Wrap(errors.New(internalABCILog), log)
}
