/*
Package escrow mediates a two party payment.

A client creates an escrow naming a freelancer, an arbiter and the amount
to pay. Funding moves the amount from the client into the custody address
of this extension. The freelancer signals delivery and the client releases
the funds to the freelancer. Either party may raise a dispute once the
escrow is funded, after which the arbiter decides who receives the funds.

	Created -> Funded -> Delivered -> Released
	Funded | Delivered -> Disputed -> Released

Every operation is atomic: a failed precondition or transfer leaves the
store untouched. Released is terminal.
*/
package escrow
