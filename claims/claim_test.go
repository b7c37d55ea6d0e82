/*
claim_test.go - ClaimEffect facade behavior
*/
package claims_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/effectkit/claims"
	"github.com/carelane/effectkit/record"
)

func TestClaimEffect_AddComment(t *testing.T) {
	claim := claims.NewClaimEffect(testDirectory(), "claim-1")

	effect, err := claim.AddComment(context.Background(), "resubmitted with corrected code")

	require.NoError(t, err)
	assert.Equal(t, "ADD_CLAIM_COMMENT", effect.Type)

	parsed, err := record.ParsePayload(effect.Payload)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"data": map[string]any{
			"claim_id": "claim-1",
			"comment":  "resubmitted with corrected code",
		},
	}, parsed)
}

func TestClaimEffect_AddCommentRequiresExistingClaim(t *testing.T) {
	claim := claims.NewClaimEffect(testDirectory(), "claim-missing")

	_, err := claim.AddComment(context.Background(), "hello")

	var vf *record.ValidationFailure
	require.ErrorAs(t, err, &vf)
	require.Len(t, vf.Issues, 1)
	assert.True(t, vf.HasMessage("Claim with id claim-missing does not exist."))
}

func TestClaimEffect_AddLabels(t *testing.T) {
	claim := claims.NewClaimEffect(testDirectory(), "claim-1")

	effect, err := claim.AddLabels(context.Background(), []claims.Label{
		{Name: "urgent", Color: claims.ColorRed},
		{Name: "follow-up"},
	})

	require.NoError(t, err)
	assert.Equal(t, "ADD_CLAIM_LABEL", effect.Type)

	parsed, err := record.ParsePayload(effect.Payload)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"data": map[string]any{
			"claim_id": "claim-1",
			"labels": []any{
				map[string]any{"name": "urgent", "color": "red"},
				map[string]any{"name": "follow-up"},
			},
		},
	}, parsed)
}

func TestClaimEffect_RemoveLabels(t *testing.T) {
	claim := claims.NewClaimEffect(testDirectory(), "claim-1")

	effect, err := claim.RemoveLabels(context.Background(), []string{"urgent"})

	require.NoError(t, err)
	assert.Equal(t, "REMOVE_CLAIM_LABEL", effect.Type)

	parsed, err := record.ParsePayload(effect.Payload)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"data": map[string]any{
			"claim_id": "claim-1",
			"labels":   []any{"urgent"},
		},
	}, parsed)
}

func TestClaimEffect_MoveToQueue(t *testing.T) {
	claim := claims.NewClaimEffect(testDirectory(), "claim-1")

	effect, err := claim.MoveToQueue(context.Background(), "NeedsReview")

	require.NoError(t, err)
	assert.Equal(t, "MOVE_CLAIM_TO_QUEUE", effect.Type)

	parsed, err := record.ParsePayload(effect.Payload)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"data": map[string]any{"claim_id": "claim-1", "queue": "NeedsReview"},
	}, parsed)
}

func TestClaimEffect_MoveToQueueRequiresExistingQueue(t *testing.T) {
	claim := claims.NewClaimEffect(testDirectory(), "claim-1")

	_, err := claim.MoveToQueue(context.Background(), "NoSuchQueue")

	var vf *record.ValidationFailure
	require.ErrorAs(t, err, &vf)
	require.Len(t, vf.Issues, 1)
	assert.True(t, vf.HasMessage("ClaimQueue with name NoSuchQueue does not exist."))
}

func TestClaimEffect_PostPayment(t *testing.T) {
	claim := claims.NewClaimEffect(testDirectory(), "claim-1")

	effect, err := claim.PostPayment(
		context.Background(),
		claims.PatientPayer,
		[]claims.LineItemTransaction{
			{ClaimLineItemID: "line-1", Payment: claims.Amount("20.00")},
		},
		claims.MethodCard,
		claims.PostPaymentParams{
			TotalCollected:  decimal.RequireFromString("20.00"),
			MoveToQueueName: "NeedsReview",
		},
	)

	require.NoError(t, err)
	assert.Equal(t, "POST_CLAIM_PAYMENT", effect.Type)

	parsed, err := record.ParsePayload(effect.Payload)
	require.NoError(t, err)
	allocation := parsed["data"].(map[string]any)["claims_allocation"].([]any)[0].(map[string]any)
	assert.Equal(t, "claim-1", allocation["claim_id"])
	assert.Equal(t, "patient", allocation["claim_coverage_id"])
	assert.Equal(t, "NeedsReview", allocation["move_to_queue_name"])
}
