// Package service implements the application services wiring the ledger
// engine to storage. Services are transport-free: they take plain
// arguments, return models and typed errors, and leave HTTP mapping to the
// server layer.
package service

import "errors"

var (
	// ErrNotMember is returned when the acting user does not belong to the
	// group they are operating on.
	ErrNotMember = errors.New("you must be a member of this group")

	// ErrNotOwner is returned when someone other than the group owner
	// triggers settlement.
	ErrNotOwner = errors.New("only the group owner may settle the group")

	// ErrNotExpenseCreator is returned when someone other than an expense's
	// creator tries to delete it.
	ErrNotExpenseCreator = errors.New("only the expense creator may delete it")

	// ErrUnknownMember is returned when a referenced user does not exist or
	// is outside the group.
	ErrUnknownMember = errors.New("unknown member")

	// ErrSelfLoan is returned when lender and receiver are the same user.
	ErrSelfLoan = errors.New("lender and receiver must differ")

	// ErrNotLoanParty is returned when the acting user is neither the lender
	// nor the receiver of the loan.
	ErrNotLoanParty = errors.New("you are not a party to this loan")
)
