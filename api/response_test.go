package api

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x/escrow"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"not found":       {errors.Wrap(errors.ErrNotFound, "escrow"), http.StatusNotFound},
		"unauthorized":    {errors.ErrUnauthorized, http.StatusForbidden},
		"amount":          {errors.Wrap(errors.ErrAmount, "zero"), http.StatusBadRequest},
		"escrow state":    {errors.Wrap(escrow.ErrNotDelivered, "job"), http.StatusConflict},
		"over abci":       {errors.FromABCI(2006, "already released"), http.StatusConflict},
		"transfer failed": {errors.Append(escrow.ErrTransferFailed, errors.ErrInsufficientAmount), http.StatusConflict},
		"internal":        {stderrors.New("boom"), http.StatusInternalServerError},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}
