// Package errors gives every failure an ABCI code that clients can match
// on.
//
// Codes below 100 belong to the generic errors declared here. Modules
// register their own ranges at init time with Register, as x/escrow does
// for 2001 to 2008. Create errors at the point of failure with Wrap or
// ErrXyz.New so that a stack trace is recorded. Only the first wrap
// records one.
//
// %s prints the message chain and %+v appends the stack trace.
package errors
