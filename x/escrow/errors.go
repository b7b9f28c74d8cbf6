package escrow

import "github.com/iov-one/weave-escrow/errors"

// x/escrow reserves 2001 ~ 2099.
var (
	ErrTransferFailed   = errors.Register(2001, "transfer failed")
	ErrAlreadyFunded    = errors.Register(2002, "already funded")
	ErrNotFunded        = errors.Register(2003, "not funded")
	ErrAlreadyDelivered = errors.Register(2004, "already delivered")
	ErrNotDelivered     = errors.Register(2005, "not delivered")
	ErrAlreadyReleased  = errors.Register(2006, "already released")
	ErrAlreadyResolved  = errors.Register(2007, "already resolved")
	ErrNotDisputed      = errors.Register(2008, "not disputed")
)
