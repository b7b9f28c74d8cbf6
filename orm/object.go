package orm

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

// ErrInvalidIndex is returned when a bucket is queried by an index it does
// not declare. The orm owns codes 100 to 109.
var ErrInvalidIndex = errors.Register(100, "invalid index")

// Validator is implemented by anything that can check its own state.
type Validator interface {
	Validate() error
}

// CloneableData is the value part of an object. Every entity stored by a
// bucket implements it.
type CloneableData interface {
	Validator
	weave.Persistent
	Copy() CloneableData
}

// Model is the name used by ModelBucket for its entities.
type Model = CloneableData

// Cloneable produces a fresh object that can be loaded into. A bucket keeps
// one as the prototype for everything it reads.
type Cloneable interface {
	Clone() Object
}

// Object pairs a database key with its value. Only valid objects are
// written.
type Object interface {
	Cloneable
	Validator
	Key() []byte
	SetKey([]byte)
	Value() weave.Persistent
}

// SimpleObj is the default Object implementation.
type SimpleObj struct {
	key   []byte
	value CloneableData
}

var _ Object = (*SimpleObj)(nil)

func NewSimpleObj(key []byte, value CloneableData) *SimpleObj {
	return &SimpleObj{key: key, value: value}
}

func (o SimpleObj) Key() []byte { return o.key }

func (o *SimpleObj) SetKey(key []byte) { o.key = key }

func (o SimpleObj) Value() weave.Persistent { return o.value }

// Validate requires both key and value to be set and then defers to the
// value.
func (o SimpleObj) Validate() error {
	switch {
	case len(o.key) == 0:
		return errors.Wrap(errors.ErrEmpty, "missing key")
	case o.value == nil:
		return errors.Wrap(errors.ErrEmpty, "missing value")
	}
	return o.value.Validate()
}

// Clone returns a deep copy. An empty key stays nil.
func (o *SimpleObj) Clone() Object {
	c := &SimpleObj{value: o.value.Copy()}
	if len(o.key) != 0 {
		c.key = append([]byte(nil), o.key...)
	}
	return c
}
