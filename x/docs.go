// Package x declares what extensions share. Authenticator reports which
// conditions signed the current transaction and Authorizer decides
// whether an address may act.
package x
