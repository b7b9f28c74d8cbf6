/*
Package weavetest provides mocks of the weave interfaces for tests:
handlers and decorators that count their calls, authenticators that
accept a fixed or context bound set of conditions, and transactions
wrapping an arbitrary message.
*/
package weavetest
