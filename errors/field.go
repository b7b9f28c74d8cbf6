package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Field attributes err to a named field of the validated value, using
// the Go field name. It returns nil for a nil err.
func Field(name string, err error, desc string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	if len(args) != 0 {
		desc = fmt.Sprintf(desc, args...)
	}
	return &fieldError{name: name, desc: desc, err: err}
}

// AppendField adds a field error without a description to errs.
func AppendField(errs error, name string, err error) error {
	return Append(errs, Field(name, err, ""))
}

type fieldError struct {
	name string
	desc string
	err  error
}

func (f *fieldError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "field %q: ", f.name)
	if f.desc != "" {
		b.WriteString(f.desc)
		b.WriteString(": ")
	}
	b.WriteString(f.err.Error())
	return b.String()
}

func (f *fieldError) Cause() error  { return f.err }
func (f *fieldError) Field() string { return f.name }

// FieldErrors collects the errors attributed to the named field.
func FieldErrors(err error, name string) []error {
	var found []error
	var walk func(error)
	walk = func(err error) {
		for !isNilErr(err) {
			switch e := err.(type) {
			case interface{ Field() string }:
				if e.Field() == name {
					found = append(found, err)
					return
				}
			case unpacker:
				for _, inner := range e.Unpack() {
					walk(inner)
				}
				return
			}
			c, ok := err.(causer)
			if !ok {
				return
			}
			err = c.Cause()
		}
	}
	walk(err)
	return found
}

// Append groups errors. Nil errors are dropped and nested groups are
// flattened. It returns nil when nothing is left and the error itself
// when only one is.
func Append(errs ...error) error {
	var all multiErr
	for _, err := range errs {
		switch e := err.(type) {
		case multiErr:
			all = append(all, e...)
		default:
			if !isNilErr(err) {
				all = append(all, err)
			}
		}
	}
	if len(all) == 0 {
		return nil
	}
	if len(all) == 1 {
		return all[0]
	}
	return all
}

// multiErr reports the ABCI code of its first error.
type multiErr []error

func (m multiErr) Error() string {
	parts := make([]string, 0, len(m))
	for _, err := range m {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("%d errors: %s", len(m), strings.Join(parts, "; "))
}

func (m multiErr) Unpack() []error  { return m }
func (m multiErr) ABCICode() uint32 { return ABCICode(m[0]) }
