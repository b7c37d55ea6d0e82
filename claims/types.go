/*
Package claims implements claim-payment posting effects.

PURPOSE:
  The deepest consumer of the record engine: posting a payment against a
  claim validates coverage selection, destination queues, and an ordered list
  of per-line-item monetary transactions whose rules depend on each
  transaction's position in the list and on the claim's active coverages.
  Validation is therefore not local to one record - this package layers the
  cross-record checks on top of the generic rule chain.

KEY CONCEPTS IN THIS FILE (types.go):
  - PaymentMethod: How the payment arrived (cash, check, card, other)
  - Coverage/LineItem: Read-only claim reference data
  - Directory: The read-only lookup collaborator this package requires
  - PatientPayer: The literal "patient", a valid payer everywhere a coverage
    identifier is accepted

SEE ALSO:
  - allocation.go: ClaimAllocation / LineItemTransaction and their rules
  - payment.go:    The PostClaimPayment aggregate effect
  - claim.go:      Comment / label / queue convenience effects
*/
package claims

import "context"

// PatientPayer is the literal payer value for patient (self-pay) postings.
const PatientPayer = "patient"

// =============================================================================
// PAYMENT METHOD
// =============================================================================

// PaymentMethod is how a posted payment was collected.
type PaymentMethod string

const (
	MethodCash  PaymentMethod = "cash"
	MethodCheck PaymentMethod = "check"
	MethodCard  PaymentMethod = "card"
	MethodOther PaymentMethod = "other"
)

// =============================================================================
// REFERENCE DATA - Read-only claim lookups
// =============================================================================

// Coverage is an active insurance payer relationship on a claim.
type Coverage struct {
	ID               string
	PayerID          string
	SubscriberNumber string
}

// LineItem is an active billable line on a claim.
type LineItem struct {
	ID       string
	ProcCode string
}

// CopayProcCode marks self-pay line items; adjustments, write-offs, and
// transfers are forbidden on them, and only patients may pay them.
const CopayProcCode = "COPAY"

// IsCopay reports whether the line item is a self-pay/COPAY charge.
func (li LineItem) IsCopay() bool { return li.ProcCode == CopayProcCode }

// Directory is the read-only lookup collaborator the payment rule engine
// requires. All queries are synchronous and side-effect-free.
type Directory interface {
	// ClaimExists reports whether the claim exists.
	ClaimExists(ctx context.Context, claimID string) (bool, error)

	// ActiveCoverages returns the claim's currently-active coverages.
	ActiveCoverages(ctx context.Context, claimID string) ([]Coverage, error)

	// ActiveLineItem returns an active line item on the claim, or nil when
	// no such line item exists.
	ActiveLineItem(ctx context.Context, claimID, lineItemID string) (*LineItem, error)

	// QueueExists reports whether a claim queue with the given name exists.
	QueueExists(ctx context.Context, name string) (bool, error)
}
