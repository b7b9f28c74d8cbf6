package app

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	abci "github.com/tendermint/tendermint/abci/types"
)

// Querier is the query part of an ABCI application.
type Querier interface {
	Query(abci.RequestQuery) abci.ResponseQuery
}

// QueryModels runs an ABCI query and decodes the returned result sets.
// Failures reported by the application are returned as errors that can be
// tested with the registered error instances.
func QueryModels(q Querier, path string, data []byte) ([]weave.Model, error) {
	res := q.Query(abci.RequestQuery{Path: path, Data: data})
	if res.IsErr() {
		return nil, errors.FromABCI(res.Code, res.Log)
	}
	var keys, values ResultSet
	if err := keys.Unmarshal(res.Key); err != nil {
		return nil, errors.Wrap(err, "keys")
	}
	if err := values.Unmarshal(res.Value); err != nil {
		return nil, errors.Wrap(err, "values")
	}
	return JoinResults(&keys, &values)
}

// QueryOne runs an ABCI query expecting exactly one result and unmarshals
// it into dst. An empty result is reported as ErrNotFound.
func QueryOne(q Querier, path string, data []byte, dst weave.Persistent) error {
	models, err := QueryModels(q, path, data)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return errors.Wrapf(errors.ErrNotFound, "%s %q", path, data)
	}
	return dst.Unmarshal(models[0].Value)
}
