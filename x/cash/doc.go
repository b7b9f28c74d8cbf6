// Package cash is the token transfer service escrows settle through.
//
// A wallet is keyed by address and holds one balance per ticker that can
// never go negative. A transfer moves the whole amount or changes nothing.
package cash
