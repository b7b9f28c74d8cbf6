package app

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/codec"
	"github.com/iov-one/weave-escrow/errors"
)

// ResultSet carries one side of a query answer. A query returns its keys
// and its values as two sets of the same length, in the Key and Value
// fields of the ABCI response.
//
// Fields:
//
//	1: repeated bytes results
type ResultSet struct {
	Results [][]byte
}

func (r *ResultSet) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	w.RepeatedBytes(1, r.Results)
	return w.Result()
}

func (r *ResultSet) Unmarshal(raw []byte) error {
	r.Results = nil
	return codec.Decode(raw, func(f codec.Field) error {
		if f.Num != 1 {
			return nil
		}
		b, err := f.Bytes()
		r.Results = append(r.Results, b)
		return err
	})
}

func ResultsFromKeys(models []weave.Model) *ResultSet {
	return project(models, func(m weave.Model) []byte { return m.Key })
}

func ResultsFromValues(models []weave.Model) *ResultSet {
	return project(models, func(m weave.Model) []byte { return m.Value })
}

func project(models []weave.Model, side func(weave.Model) []byte) *ResultSet {
	out := &ResultSet{Results: make([][]byte, 0, len(models))}
	for _, m := range models {
		out.Results = append(out.Results, side(m))
	}
	return out
}

// JoinResults pairs up the two halves of a query answer.
func JoinResults(keys, values *ResultSet) ([]weave.Model, error) {
	if n, m := len(keys.Results), len(values.Results); n != m {
		return nil, errors.Wrapf(errors.ErrState, "%d keys for %d values", n, m)
	}
	models := make([]weave.Model, 0, len(keys.Results))
	for i, k := range keys.Results {
		models = append(models, weave.Pair(k, values.Results[i]))
	}
	return models, nil
}
