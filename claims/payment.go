/*
payment.go - The PostClaimPayment aggregate effect

PURPOSE:
  PostClaimPayment bundles a payment collection (method, check details,
  total) with one or more claim allocations and emits a single
  POST_CLAIM_PAYMENT effect. Its rule chain has two layers, composed the way
  the engine replaces inheritance: the shared payment-collection rules first,
  the allocation rules second, with all findings aggregated into one failure.

WIRE SHAPE:
  {"data": {
      "posting":            {"description": ...},
      "payment_collection": {"check_date", "check_number", "deposit_date",
                             "method", "payment_description", "total_collected"},
      "claims_allocation":  [ ...allocation payloads... ]
  }}

SEE ALSO:
  - allocation.go: The per-allocation and per-transaction rules
*/
package claims

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/carelane/effectkit/record"
)

// VerbPost is the domain verb PostClaimPayment supports.
const VerbPost = record.Verb("post")

// Field names for the PostClaimPayment record type.
const (
	fieldMethod             = "method"
	fieldCheckDate          = "check_date"
	fieldCheckNumber        = "check_number"
	fieldDepositDate        = "deposit_date"
	fieldPaymentDescription = "payment_description"
	fieldTotalCollected     = "total_collected"
	fieldPostingDescription = "posting_description"
	fieldAllocations        = "claims_allocation"
)

// =============================================================================
// RULE CHAIN
// =============================================================================

// paymentCollectionRules is the shared payment layer: every payment-posting
// record type runs these before its own rules. Findings are independent, so
// the set never short-circuits - a CHECK payment missing both check fields
// reports both.
var paymentCollectionRules = record.RuleSet{
	Name: "payment_collection",
	Rules: []record.Rule{
		checkMethodFields,
		totalCollectedNotNegative,
	},
}

func checkMethodFields(rc record.RuleContext) ([]record.Issue, error) {
	method, _ := rc.Record.Get(fieldMethod).(PaymentMethod)
	if method != MethodCheck {
		return nil, nil
	}
	var issues []record.Issue
	if !rc.Record.Present(fieldCheckNumber) {
		issues = append(issues, record.BusinessIssue("Check number is required for payment method CHECK", nil))
	}
	if !rc.Record.Present(fieldCheckDate) {
		issues = append(issues, record.BusinessIssue("Check date is required for payment method CHECK", nil))
	}
	return issues, nil
}

func totalCollectedNotNegative(rc record.RuleContext) ([]record.Issue, error) {
	total, ok := rc.Record.Get(fieldTotalCollected).(decimal.Decimal)
	if ok && total.IsNegative() {
		return []record.Issue{record.BusinessIssue("Total collected must not be negative", total.StringFixed(2))}, nil
	}
	return nil, nil
}

// allocationRules is the PostClaimPayment layer: every allocation runs its
// own short-circuiting validation, and findings across allocations are
// concatenated.
var allocationRules = record.RuleSet{
	Name:  "claims_allocation",
	Rules: []record.Rule{validateAllocations},
}

func validateAllocations(rc record.RuleContext) ([]record.Issue, error) {
	dir, ok := rc.Lookup.(Directory)
	if !ok {
		return nil, fmt.Errorf("claims: no Directory bound to %s", rc.Record.Type().Name())
	}
	allocations, _ := rc.Record.Get(fieldAllocations).([]ClaimAllocation)
	var all []record.Issue
	for _, a := range allocations {
		issues, err := a.collectIssues(rc.Context, dir)
		if err != nil {
			return nil, err
		}
		all = append(all, issues...)
	}
	return all, nil
}

// =============================================================================
// TYPE
// =============================================================================

var postClaimPaymentType = record.NewType(record.Config{
	Name: "PostClaimPayment",
	Fields: record.Fields{
		fieldMethod:             {},
		fieldCheckDate:          {},
		fieldCheckNumber:        {},
		fieldDepositDate:        {},
		fieldPaymentDescription: {},
		fieldTotalCollected:     {},
		fieldPostingDescription: {},
		fieldAllocations:        {Presence: true},
	},
	Verbs: []record.VerbSpec{{
		Verb:       VerbPost,
		EffectType: "POST_CLAIM_PAYMENT",
		Required:   []string{fieldMethod, fieldTotalCollected, fieldAllocations},
		Visibility: record.VisibilityAll,
	}},
	Rules: []record.RuleSet{paymentCollectionRules, allocationRules},
})

// PostClaimPayment posts a payment against one or more claims.
type PostClaimPayment struct {
	rec *record.Record
}

// NewPostClaimPayment builds an empty posting bound to the claim directory.
func NewPostClaimPayment(dir Directory) *PostClaimPayment {
	rec := postClaimPaymentType.New(nil)
	rec.BindLookup(dir)
	return &PostClaimPayment{rec: rec}
}

// Record exposes the underlying record for state inspection.
func (p *PostClaimPayment) Record() *record.Record { return p.rec }

func (p *PostClaimPayment) SetMethod(m PaymentMethod) { p.rec.Set(fieldMethod, m) }
func (p *PostClaimPayment) SetCheckDate(d record.Date) { p.rec.Set(fieldCheckDate, d) }
func (p *PostClaimPayment) SetCheckNumber(n string) { p.rec.Set(fieldCheckNumber, n) }
func (p *PostClaimPayment) SetDepositDate(d record.Date) { p.rec.Set(fieldDepositDate, d) }
func (p *PostClaimPayment) SetPaymentDescription(s string) { p.rec.Set(fieldPaymentDescription, s) }
func (p *PostClaimPayment) SetPostingDescription(s string) { p.rec.Set(fieldPostingDescription, s) }
func (p *PostClaimPayment) SetTotalCollected(d decimal.Decimal) {
	p.rec.Set(fieldTotalCollected, d)
}

// AddAllocation appends a claim allocation. Order matters: first-transaction
// detection inside an allocation follows list position.
func (p *PostClaimPayment) AddAllocation(a ClaimAllocation) {
	allocations, _ := p.rec.Get(fieldAllocations).([]ClaimAllocation)
	p.rec.Set(fieldAllocations, append(allocations, a))
}

// Post validates the posting and emits the POST_CLAIM_PAYMENT effect.
func (p *PostClaimPayment) Post(ctx context.Context) (record.Effect, error) {
	return p.rec.ApplyPayload(ctx, VerbPost, map[string]any{"data": p.values()})
}

// values assembles the verb's wire object from the record's current fields.
func (p *PostClaimPayment) values() record.Values {
	allocations, _ := p.rec.Get(fieldAllocations).([]ClaimAllocation)
	return record.Values{
		"posting": record.Values{
			"description": p.rec.Get(fieldPostingDescription),
		},
		"payment_collection": record.Values{
			"check_date":          p.rec.Get(fieldCheckDate),
			"check_number":        p.rec.Get(fieldCheckNumber),
			"deposit_date":        p.rec.Get(fieldDepositDate),
			"method":              p.rec.Get(fieldMethod),
			"payment_description": p.rec.Get(fieldPaymentDescription),
			"total_collected":     p.rec.Get(fieldTotalCollected),
		},
		"claims_allocation": allocations,
	}
}
