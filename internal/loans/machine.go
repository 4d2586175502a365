// Package loans implements the loan lifecycle state machine.
//
// The happy path is linear: pending -> confirmed -> payment_requested ->
// paid. The one backward edge is the lender declining a payment claim,
// which returns the loan to confirmed. Every transition names the actor
// allowed to drive it; any (state, event, actor) triple outside the table
// is rejected without mutation.
package loans

import (
	"errors"
	"fmt"

	"github.com/hisab/hisab/internal/models"
)

// ErrIllegalTransition is returned for any event that is not legal from the
// loan's current state, or is attempted by the wrong party.
var ErrIllegalTransition = errors.New("illegal loan transition")

// Event is a lifecycle action taken on a loan.
type Event string

const (
	// EventConfirm is the receiver acknowledging the debt.
	EventConfirm Event = "confirm"

	// EventRequestPayment is the receiver asserting they have paid.
	EventRequestPayment Event = "request-payment"

	// EventConfirmPayment is the lender accepting the payment claim.
	EventConfirmPayment Event = "confirm-payment"

	// EventDeclinePayment is the lender disputing the payment claim.
	EventDeclinePayment Event = "decline-payment"
)

type role int

const (
	roleNone role = iota
	roleLender
	roleReceiver
)

type transition struct {
	from  models.LoanStatus
	event Event
	actor role
	to    models.LoanStatus
}

// The full transition table. Settlement-generated loans use it unchanged;
// their kind is display metadata only.
var transitions = []transition{
	{models.LoanPending, EventConfirm, roleReceiver, models.LoanConfirmed},
	{models.LoanConfirmed, EventRequestPayment, roleReceiver, models.LoanPaymentRequested},
	{models.LoanPaymentRequested, EventConfirmPayment, roleLender, models.LoanPaid},
	{models.LoanPaymentRequested, EventDeclinePayment, roleLender, models.LoanConfirmed},
}

// Next returns the status the loan moves to when actorID applies event.
// The loan itself is not mutated; callers persist the new status with a
// compare-and-set on the old one so a concurrent transition loses cleanly.
func Next(loan *models.Loan, event Event, actorID string) (models.LoanStatus, error) {
	actor := roleNone
	switch actorID {
	case loan.LenderID:
		actor = roleLender
	case loan.ReceiverID:
		actor = roleReceiver
	}
	if actor == roleNone {
		return "", fmt.Errorf("%w: user %s is not a party to loan %s", ErrIllegalTransition, actorID, loan.ID)
	}

	for _, t := range transitions {
		if t.from == loan.Status && t.event == event {
			if t.actor != actor {
				return "", fmt.Errorf("%w: %s on %s loan is not permitted for this party", ErrIllegalTransition, event, loan.Status)
			}
			return t.to, nil
		}
	}
	return "", fmt.Errorf("%w: %s is not valid from %s", ErrIllegalTransition, event, loan.Status)
}
