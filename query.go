package weave

import (
	"fmt"
	"strings"
)

// Query modifiers, passed after a "?" in the query path.
const (
	// KeyQueryMod looks up a single exact key.
	KeyQueryMod = ""
	// PrefixQueryMod returns every key starting with the given bytes.
	PrefixQueryMod = "prefix"
)

// Model is a raw key and value pair as returned by a query.
type Model struct {
	Key   []byte
	Value []byte
}

func Pair(key, value []byte) Model {
	return Model{Key: key, Value: value}
}

// QueryHandler answers ABCI queries for a single path.
type QueryHandler interface {
	Query(db ReadOnlyKVStore, mod string, data []byte) ([]Model, error)
}

// QueryRegister adds the query handlers of one extension.
type QueryRegister func(QueryRouter)

// QueryRouter maps query paths such as "/escrows/client" to their
// handler. Every path can be registered once.
type QueryRouter struct {
	routes map[string]QueryHandler
}

func NewQueryRouter() QueryRouter {
	return QueryRouter{routes: make(map[string]QueryHandler)}
}

func (r QueryRouter) RegisterAll(regs ...QueryRegister) {
	for _, reg := range regs {
		reg(r)
	}
}

// Register panics when the path is already taken, as that is always a
// wiring mistake.
func (r QueryRouter) Register(path string, h QueryHandler) {
	if _, dup := r.routes[path]; dup {
		panic(fmt.Sprintf("query path %q registered twice", path))
	}
	r.routes[path] = h
}

// Handler returns nil for an unknown path.
func (r QueryRouter) Handler(path string) QueryHandler {
	return r.routes[path]
}

// SplitQueryPath separates "/escrows?prefix" into the path and the
// modifier.
func SplitQueryPath(full string) (path, mod string) {
	path, mod, _ = strings.Cut(full, "?")
	return path, mod
}
