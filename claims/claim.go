/*
claim.go - Claim convenience effects

PURPOSE:
  ClaimEffect is the caller-facing facade for one claim: add a comment, add
  or remove labels, move the claim to a queue, or post a payment. Each method
  builds the backing record, validates it, and returns the emitted effect.

SEE ALSO:
  - payment.go: PostClaimPayment, reached via PostPayment
*/
package claims

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/carelane/effectkit/record"
)

// =============================================================================
// LABELS
// =============================================================================

// LabelColor is the display color of a claim label.
type LabelColor string

const (
	ColorRed    LabelColor = "red"
	ColorOrange LabelColor = "orange"
	ColorYellow LabelColor = "yellow"
	ColorGreen  LabelColor = "green"
	ColorBlue   LabelColor = "blue"
	ColorPurple LabelColor = "purple"
	ColorPink   LabelColor = "pink"
	ColorGray   LabelColor = "gray"
)

// Label is a claim label; Color is optional.
type Label struct {
	Name  string
	Color LabelColor
}

// Payload implements record.Payloader. Color is omitted when unset, matching
// the wire shape for name-only labels.
func (l Label) Payload() record.Values {
	vals := record.Values{"name": l.Name}
	if l.Color != "" {
		vals["color"] = l.Color
	}
	return vals
}

// =============================================================================
// BACKING RECORD TYPES
// =============================================================================

const (
	fieldClaimID = "claim_id"
	fieldComment = "comment"
	fieldLabels  = "labels"
	fieldQueue   = "queue"
)

const (
	verbAddComment   = record.Verb("add_comment")
	verbAddLabels    = record.Verb("add_labels")
	verbRemoveLabels = record.Verb("remove_labels")
	verbMoveToQueue  = record.Verb("move_to_queue")
)

// claimExists is the shared base rule of every claim effect.
func claimExists(rc record.RuleContext) ([]record.Issue, error) {
	dir, ok := rc.Lookup.(Directory)
	if !ok {
		return nil, fmt.Errorf("claims: no Directory bound to %s", rc.Record.Type().Name())
	}
	claimID, _ := rc.Record.Get(fieldClaimID).(string)
	exists, err := dir.ClaimExists(rc.Context, claimID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []record.Issue{record.ReferenceIssue(
			fieldClaimID,
			fmt.Sprintf("Claim with id %s does not exist.", claimID),
			claimID,
		)}, nil
	}
	return nil, nil
}

var claimBaseRules = record.RuleSet{
	Name:         "claim",
	ShortCircuit: true,
	Rules:        []record.Rule{claimExists},
}

var claimCommentType = record.NewType(record.Config{
	Name:   "AddClaimComment",
	Fields: record.Fields{fieldClaimID: {}, fieldComment: {}},
	Verbs: []record.VerbSpec{{
		Verb:       verbAddComment,
		EffectType: "ADD_CLAIM_COMMENT",
		Required:   []string{fieldClaimID, fieldComment},
		Visibility: record.VisibilityAll,
	}},
	Rules: []record.RuleSet{claimBaseRules},
})

var claimLabelType = record.NewType(record.Config{
	Name:   "ClaimLabel",
	Fields: record.Fields{fieldClaimID: {}, fieldLabels: {Presence: true}},
	Verbs: []record.VerbSpec{
		{
			Verb:       verbAddLabels,
			EffectType: "ADD_CLAIM_LABEL",
			Required:   []string{fieldClaimID, fieldLabels},
			Visibility: record.VisibilityAll,
		},
		{
			Verb:       verbRemoveLabels,
			EffectType: "REMOVE_CLAIM_LABEL",
			Required:   []string{fieldClaimID, fieldLabels},
			Visibility: record.VisibilityAll,
		},
	},
	Rules: []record.RuleSet{claimBaseRules},
})

func queueExists(rc record.RuleContext) ([]record.Issue, error) {
	dir, ok := rc.Lookup.(Directory)
	if !ok {
		return nil, fmt.Errorf("claims: no Directory bound to %s", rc.Record.Type().Name())
	}
	queue, _ := rc.Record.Get(fieldQueue).(string)
	if queue == "" {
		return nil, nil
	}
	exists, err := dir.QueueExists(rc.Context, queue)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []record.Issue{record.ReferenceIssue(
			fieldQueue,
			fmt.Sprintf("ClaimQueue with name %s does not exist.", queue),
			queue,
		)}, nil
	}
	return nil, nil
}

var claimQueueType = record.NewType(record.Config{
	Name:   "MoveClaimToQueue",
	Fields: record.Fields{fieldClaimID: {}, fieldQueue: {}},
	Verbs: []record.VerbSpec{{
		Verb:       verbMoveToQueue,
		EffectType: "MOVE_CLAIM_TO_QUEUE",
		Required:   []string{fieldClaimID, fieldQueue},
		Visibility: record.VisibilityAll,
	}},
	Rules: []record.RuleSet{
		claimBaseRules,
		{Name: "queue", Rules: []record.Rule{queueExists}},
	},
})

// =============================================================================
// CLAIM EFFECT FACADE
// =============================================================================

// ClaimEffect performs actions on one claim.
type ClaimEffect struct {
	ClaimID string

	dir Directory
}

// NewClaimEffect builds the facade for a claim.
func NewClaimEffect(dir Directory, claimID string) *ClaimEffect {
	return &ClaimEffect{ClaimID: claimID, dir: dir}
}

// AddComment emits an effect adding a comment to the claim.
func (c *ClaimEffect) AddComment(ctx context.Context, comment string) (record.Effect, error) {
	rec := claimCommentType.New(record.Values{fieldClaimID: c.ClaimID})
	rec.BindLookup(c.dir)
	rec.Set(fieldComment, comment)
	return rec.Apply(ctx, verbAddComment)
}

// AddLabels emits an effect adding one or more labels to the claim.
func (c *ClaimEffect) AddLabels(ctx context.Context, labels []Label) (record.Effect, error) {
	rec := claimLabelType.New(record.Values{fieldClaimID: c.ClaimID})
	rec.BindLookup(c.dir)
	rec.Set(fieldLabels, labels)
	return rec.Apply(ctx, verbAddLabels)
}

// RemoveLabels emits an effect removing labels by name.
func (c *ClaimEffect) RemoveLabels(ctx context.Context, names []string) (record.Effect, error) {
	rec := claimLabelType.New(record.Values{fieldClaimID: c.ClaimID})
	rec.BindLookup(c.dir)
	rec.Set(fieldLabels, names)
	return rec.Apply(ctx, verbRemoveLabels)
}

// MoveToQueue emits an effect moving the claim to the named queue.
func (c *ClaimEffect) MoveToQueue(ctx context.Context, queue string) (record.Effect, error) {
	rec := claimQueueType.New(record.Values{fieldClaimID: c.ClaimID})
	rec.BindLookup(c.dir)
	rec.Set(fieldQueue, queue)
	return rec.Apply(ctx, verbMoveToQueue)
}

// PostPaymentParams carries the optional fields of PostPayment.
type PostPaymentParams struct {
	MoveToQueueName    string
	ClaimDescription   string
	CheckDate          record.Date
	CheckNumber        string
	DepositDate        record.Date
	PaymentDescription string
	TotalCollected     decimal.Decimal
}

// PostPayment posts a coverage or patient payment to the claim.
// coverageRef is a coverage id or PatientPayer.
func (c *ClaimEffect) PostPayment(
	ctx context.Context,
	coverageRef string,
	transactions []LineItemTransaction,
	method PaymentMethod,
	params PostPaymentParams,
) (record.Effect, error) {
	posting := NewPostClaimPayment(c.dir)
	posting.SetMethod(method)
	posting.SetTotalCollected(params.TotalCollected)
	if params.CheckNumber != "" {
		posting.SetCheckNumber(params.CheckNumber)
	}
	if !params.CheckDate.IsZero() {
		posting.SetCheckDate(params.CheckDate)
	}
	if !params.DepositDate.IsZero() {
		posting.SetDepositDate(params.DepositDate)
	}
	if params.PaymentDescription != "" {
		posting.SetPaymentDescription(params.PaymentDescription)
	}
	posting.AddAllocation(ClaimAllocation{
		ClaimID:              c.ClaimID,
		ClaimCoverageID:      coverageRef,
		LineItemTransactions: transactions,
		MoveToQueueName:      params.MoveToQueueName,
		Description:          params.ClaimDescription,
	})
	return posting.Post(ctx)
}
