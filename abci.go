package weave

import (
	"github.com/iov-one/weave-escrow/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/common"
)

// CheckResult is a successful check. Failures are reported as errors.
type CheckResult struct {
	// Data is machine readable, usually the id of the touched entity.
	Data []byte
	Log  string
}

func (c CheckResult) ToABCI() abci.ResponseCheckTx {
	return abci.ResponseCheckTx{Data: c.Data, Log: c.Log}
}

// DeliverResult is a successful delivery. Failures are reported as errors.
type DeliverResult struct {
	// Data is machine readable, usually the id of the touched entity.
	Data []byte
	Log  string
	// Tags are indexed by the node so clients can subscribe to changes
	// of a single escrow.
	Tags []common.KVPair
}

func (d DeliverResult) ToABCI() abci.ResponseDeliverTx {
	return abci.ResponseDeliverTx{Data: d.Data, Log: d.Log, Tags: d.Tags}
}

// Tag builds one DeliverResult tag.
func Tag(key, value string) common.KVPair {
	return common.KVPair{Key: []byte(key), Value: []byte(value)}
}

// EventTags indexes every event as <module>.<topic> = <key>.
func EventTags(events []Event) []common.KVPair {
	var tags []common.KVPair
	for _, e := range events {
		tags = append(tags, Tag(e.Tag(), e.Key))
	}
	return tags
}

// CheckOrError turns a handler's check outcome into a response.
func CheckOrError(res *CheckResult, err error, debug bool) abci.ResponseCheckTx {
	if err != nil {
		return CheckTxError(err, debug)
	}
	return res.ToABCI()
}

// DeliverOrError turns a handler's deliver outcome into a response.
func DeliverOrError(res *DeliverResult, err error, debug bool) abci.ResponseDeliverTx {
	if err != nil {
		return DeliverTxError(err, debug)
	}
	return res.ToABCI()
}

// CheckTxError reports err with its registered code. Unregistered errors
// are redacted unless debug is set.
func CheckTxError(err error, debug bool) abci.ResponseCheckTx {
	code, log := txError("cannot check tx", err, debug)
	return abci.ResponseCheckTx{Code: code, Log: log}
}

// DeliverTxError reports err with its registered code. Unregistered
// errors are redacted unless debug is set.
func DeliverTxError(err error, debug bool) abci.ResponseDeliverTx {
	code, log := txError("cannot deliver tx", err, debug)
	return abci.ResponseDeliverTx{Code: code, Log: log}
}

func txError(stage string, err error, debug bool) (uint32, string) {
	code, log := errors.ABCIInfo(err, debug)
	if code == errors.SuccessABCICode {
		return code, log
	}
	return code, stage + ": " + log
}
