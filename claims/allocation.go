/*
allocation.go - ClaimAllocation and LineItemTransaction validation

PURPOSE:
  A ClaimAllocation is one claim-level posting instruction: which claim, which
  payer (a coverage or the literal "patient"), an optional destination queue,
  and an ordered list of line-item transactions. This file holds the rule
  engine for both levels.

RULE ORDERING:
  Claim-level checks run in a fixed order and short-circuit the remainder of
  the allocation's validation:
    1. Claim existence
    2. Payer/coverage validity (subscriber number breaks payer-id ties)
    3. Queue name validity
  Only after all three pass does the transaction loop run. Every transaction
  is attempted; within one transaction, rule groups short-circuit on the
  first failure.

AMOUNT PRESENCE:
  Monetary fields are *decimal.Decimal. nil means "not provided"; a supplied
  zero is present. The engine never coerces a zero into "unset". The one
  deliberate exception is the patient-posting allowed check, which accepts
  $0 as well as nil.

SEE ALSO:
  - payment.go: Runs these rules from the PostClaimPayment rule chain
  - types.go:   Directory, Coverage, LineItem
*/
package claims

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/carelane/effectkit/record"
)

// =============================================================================
// LINE ITEM TRANSACTION
// =============================================================================

// LineItemTransaction is a single monetary posting against one claim line
// item: a payment, an adjustment, a write-off, or a balance transfer.
type LineItemTransaction struct {
	ClaimLineItemID string

	Charged    *decimal.Decimal
	Allowed    *decimal.Decimal
	Payment    *decimal.Decimal
	Adjustment *decimal.Decimal

	AdjustmentCode string

	// TransferRemainingBalanceTo names the payer receiving the adjusted
	// balance: PatientPayer or an active coverage on the claim.
	TransferRemainingBalanceTo string

	WriteOff bool
}

// Amount wraps a decimal for the optional monetary fields.
func Amount(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		d = decimal.Zero
	}
	return &d
}

// Payload implements record.Payloader with the wire field names.
func (t LineItemTransaction) Payload() record.Values {
	return record.Values{
		"claim_line_item_id": t.ClaimLineItemID,
		"charged":            t.Charged,
		"allowed":            t.Allowed,
		"payment":            t.Payment,
		"adjustment":         t.Adjustment,
		"adjustment_code":    strOrNil(t.AdjustmentCode),
		"transfer_to":        strOrNil(t.TransferRemainingBalanceTo),
		"write_off":          t.WriteOff,
	}
}

// isFirstForLineItem reports whether no earlier transaction in the ordered
// list targets the same line item.
func (t LineItemTransaction) isFirstForLineItem(all []LineItemTransaction, index int) bool {
	for i, other := range all {
		if other.ClaimLineItemID == t.ClaimLineItemID {
			return i == index
		}
	}
	return false
}

func (t LineItemTransaction) issue(message string) record.Issue {
	return record.BusinessIssue(message, record.Normalize(t.Payload()))
}

// --- Rule groups, in evaluation order. Each returns its findings; the caller
// --- short-circuits the remaining groups once a group reports anything.

func (t LineItemTransaction) allowedValidForPayer(isPatient bool) []record.Issue {
	if isPatient && t.Allowed != nil && !t.Allowed.IsZero() {
		return []record.Issue{t.issue("Allowed amount should be $0 or None for patient postings")}
	}
	return nil
}

func (t LineItemTransaction) paymentRequiredIfFirst(isFirst bool) []record.Issue {
	if isFirst && t.Payment == nil && t.Adjustment == nil && t.Allowed == nil {
		return []record.Issue{t.issue("Payment or adjustment is required for a claim line item's first transaction")}
	}
	return nil
}

func (t LineItemTransaction) adjustmentRequired(isFirst bool) []record.Issue {
	var issues []record.Issue
	if !isFirst && t.Adjustment == nil {
		issues = append(issues, t.issue("Specify an adjustment amount for added adjustments or remove the added adjustment line for this claim line item"))
	}
	if t.Adjustment == nil && t.AdjustmentCode != "" {
		issues = append(issues, t.issue("Enter an adjustment amount for the specified adjustment type"))
	}
	if t.Adjustment == nil && t.TransferRemainingBalanceTo != "" {
		issues = append(issues, t.issue("Enter an adjustment amount to transfer"))
	}
	if t.Adjustment == nil && t.WriteOff {
		issues = append(issues, t.issue("Enter an adjustment amount to write off"))
	}
	return issues
}

func (t LineItemTransaction) adjustmentCodeRequired() []record.Issue {
	if t.Adjustment != nil && t.AdjustmentCode == "" {
		return []record.Issue{t.issue("Specify an adjustment code for the adjustment amount")}
	}
	return nil
}

func (t LineItemTransaction) transferDestinationRequired() []record.Issue {
	if t.Adjustment == nil || t.AdjustmentCode == "" {
		return nil
	}
	// Only the bare "Transfer" code group demands a destination; grouped
	// codes like "CO-45" never do.
	parts := strings.Split(t.AdjustmentCode, "-")
	if len(parts) < 2 && parts[0] == "Transfer" && t.TransferRemainingBalanceTo == "" {
		return []record.Issue{t.issue("Specify a payer to transfer the adjusted amount")}
	}
	return nil
}

func (t LineItemTransaction) adjustmentAllowed(isCopay bool) []record.Issue {
	var issues []record.Issue
	if isCopay && (t.Adjustment != nil || t.AdjustmentCode != "" || t.WriteOff || t.TransferRemainingBalanceTo != "") {
		issues = append(issues, t.issue("Adjustments and transfers not allowed for COPAY charges"))
	}
	if t.Adjustment != nil && t.WriteOff && t.TransferRemainingBalanceTo != "" {
		issues = append(issues, t.issue("Adjustments cannot write off and transfer at the same time, set write_off=false or clear transfer_remaining_balance_to to create the posting"))
	}
	return issues
}

func (t LineItemTransaction) payerValidForCopay(isCopay, isPatient bool) []record.Issue {
	if isCopay && !isPatient {
		return []record.Issue{t.issue("COPAY payments may only be posted by patients")}
	}
	return nil
}

func (t LineItemTransaction) transferDestinationValid(payerRef string, coverages []Coverage) []record.Issue {
	dest := t.TransferRemainingBalanceTo
	if dest == "" {
		return nil
	}
	if dest == payerRef {
		return []record.Issue{t.issue("Can't create transfers to same payer")}
	}
	if dest != PatientPayer && !coverageMatches(coverages, dest) {
		return []record.Issue{t.issue("Balance can only be transferred to patient or an active coverage for the claim")}
	}
	return nil
}

// collectIssues validates one transaction in the context of the whole
// ordered list. Rule groups short-circuit: the first failing group's
// findings are the transaction's findings.
func (t LineItemTransaction) collectIssues(
	ctx context.Context,
	dir Directory,
	claimID string,
	payerRef string,
	all []LineItemTransaction,
	index int,
	coverages []Coverage,
) ([]record.Issue, error) {
	lineItem, err := dir.ActiveLineItem(ctx, claimID, t.ClaimLineItemID)
	if err != nil {
		return nil, err
	}
	if lineItem == nil {
		return []record.Issue{record.ReferenceIssue(
			"claim_line_item_id",
			"The provided claim_line_item_id does not correspond to an existing ClaimLineItem",
			t.ClaimLineItemID,
		)}, nil
	}

	isPatient := payerRef == PatientPayer
	if issues := t.allowedValidForPayer(isPatient); len(issues) > 0 {
		return issues, nil
	}

	isFirst := t.isFirstForLineItem(all, index)
	if issues := t.paymentRequiredIfFirst(isFirst); len(issues) > 0 {
		return issues, nil
	}
	if issues := t.adjustmentRequired(isFirst); len(issues) > 0 {
		return issues, nil
	}
	if issues := t.adjustmentCodeRequired(); len(issues) > 0 {
		return issues, nil
	}
	if issues := t.transferDestinationRequired(); len(issues) > 0 {
		return issues, nil
	}

	isCopay := lineItem.IsCopay()
	if issues := t.adjustmentAllowed(isCopay); len(issues) > 0 {
		return issues, nil
	}
	if issues := t.payerValidForCopay(isCopay, isPatient); len(issues) > 0 {
		return issues, nil
	}
	if issues := t.transferDestinationValid(payerRef, coverages); len(issues) > 0 {
		return issues, nil
	}

	return nil, nil
}

func coverageMatches(coverages []Coverage, ref string) bool {
	for _, c := range coverages {
		if c.ID == ref || c.PayerID == ref {
			return true
		}
	}
	return false
}

// =============================================================================
// CLAIM ALLOCATION
// =============================================================================

// ClaimAllocation is one claim-level posting instruction. The payer is named
// either directly (ClaimCoverageID: a coverage id or PatientPayer) or
// indirectly (PayerID, with SubscriberNumber as the tie-break when several
// active coverages share the payer).
type ClaimAllocation struct {
	ClaimID string

	ClaimCoverageID  string
	PayerID          string
	SubscriberNumber string

	LineItemTransactions []LineItemTransaction

	MoveToQueueName string
	Description     string
}

// Payload implements record.Payloader with the wire field names.
func (a ClaimAllocation) Payload() record.Values {
	vals := record.Values{
		"claim_id":               a.ClaimID,
		"claim_coverage_id":      strOrNil(a.ClaimCoverageID),
		"line_item_transactions": a.LineItemTransactions,
		"move_to_queue_name":     strOrNil(a.MoveToQueueName),
		"description":            strOrNil(a.Description),
	}
	if a.ClaimCoverageID == "" && a.PayerID != "" {
		vals["payer_id"] = a.PayerID
		vals["subscriber_number"] = strOrNil(a.SubscriberNumber)
	}
	return vals
}

// resolvePayer picks the effective payer reference for the allocation:
// PatientPayer, a verified coverage id, or a coverage found by payer id and
// subscriber number.
func (a ClaimAllocation) resolvePayer(coverages []Coverage) (string, []record.Issue) {
	switch {
	case a.ClaimCoverageID == PatientPayer:
		return PatientPayer, nil

	case a.ClaimCoverageID != "":
		for _, c := range coverages {
			if c.ID == a.ClaimCoverageID {
				return a.ClaimCoverageID, nil
			}
		}
		return "", []record.Issue{record.ReferenceIssue(
			"claim_coverage_id",
			"The provided claim_coverage_id does not correspond to an active coverage for the claim",
			map[string]any{"claim_coverage_id": a.ClaimCoverageID},
		)}

	case a.PayerID != "":
		var candidates []Coverage
		for _, c := range coverages {
			if c.PayerID != a.PayerID {
				continue
			}
			if a.SubscriberNumber != "" && c.SubscriberNumber != a.SubscriberNumber {
				continue
			}
			candidates = append(candidates, c)
		}
		switch len(candidates) {
		case 0:
			return "", []record.Issue{record.ReferenceIssue(
				"payer_id",
				"No active coverage with the provided payer_id and subscriber_number for the claim",
				map[string]any{"payer_id": a.PayerID, "subscriber_number": a.SubscriberNumber},
			)}
		case 1:
			return candidates[0].ID, nil
		default:
			return "", []record.Issue{record.BusinessIssue(
				"Multiple active coverages match the provided payer_id; provide a subscriber_number to disambiguate",
				map[string]any{"payer_id": a.PayerID},
			)}
		}

	default:
		return "", []record.Issue{{
			Kind:    record.IssueMissingField,
			Field:   "claim_coverage_id",
			Message: "A claim_coverage_id (or payer_id) is required for a claim allocation",
		}}
	}
}

// collectIssues runs the allocation's full validation: the ordered,
// short-circuiting claim-level checks, then - only once those pass - every
// line-item transaction.
func (a ClaimAllocation) collectIssues(ctx context.Context, dir Directory) ([]record.Issue, error) {
	exists, err := dir.ClaimExists(ctx, a.ClaimID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []record.Issue{record.ReferenceIssue(
			"claim_id",
			"The provided claim_id does not correspond with an existing Claim",
			a.ClaimID,
		)}, nil
	}

	coverages, err := dir.ActiveCoverages(ctx, a.ClaimID)
	if err != nil {
		return nil, err
	}
	payerRef, issues := a.resolvePayer(coverages)
	if len(issues) > 0 {
		return issues, nil
	}

	if a.MoveToQueueName != "" {
		ok, err := dir.QueueExists(ctx, a.MoveToQueueName)
		if err != nil {
			return nil, err
		}
		if !ok {
			return []record.Issue{record.ReferenceIssue(
				"move_to_queue_name",
				"The provided move_to_queue_name does not correspond to an existing ClaimQueue",
				a.MoveToQueueName,
			)}, nil
		}
	}

	var all []record.Issue
	for i, tx := range a.LineItemTransactions {
		txIssues, err := tx.collectIssues(ctx, dir, a.ClaimID, payerRef, a.LineItemTransactions, i, coverages)
		if err != nil {
			return nil, err
		}
		all = append(all, txIssues...)
	}
	return all, nil
}

func strOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
