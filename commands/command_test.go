/*
command_test.go - Command verb contracts and wire shapes

ORGANIZATION:
  1. Originate - note required, identifier forbidden, insertion payload
  2. Edit - dirty data only, command envelope
  3. Terminal verbs - delete/commit/enter-in-error carry the command id only
*/
package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/effectkit/commands"
	"github.com/carelane/effectkit/record"
)

func TestPlan_Originate(t *testing.T) {
	plan := commands.NewPlan()
	plan.SetNoteID("note-1")
	plan.SetNarrative("Follow up in two weeks")

	effect, err := plan.Originate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "ORIGINATE_PLAN_COMMAND", effect.Type)

	parsed, err := record.ParsePayload(effect.Payload)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"command":     nil,
		"note":        "note-1",
		"data":        map[string]any{"narrative": "Follow up in two weeks"},
		"line_number": float64(-1),
	}, parsed)
}

func TestPlan_OriginateRequiresNote(t *testing.T) {
	plan := commands.NewPlan()
	plan.SetNarrative("Follow up in two weeks")

	_, err := plan.Originate(context.Background())

	var vf *record.ValidationFailure
	require.ErrorAs(t, err, &vf)
	require.Len(t, vf.Issues, 1)
	assert.Equal(t, record.IssueMissingField, vf.Issues[0].Kind)
	assert.Equal(t, "note_id", vf.Issues[0].Field)
}

func TestPlan_OriginateRequiresNarrative(t *testing.T) {
	plan := commands.NewPlan()
	plan.SetNoteID("note-1")

	_, err := plan.Originate(context.Background())

	var vf *record.ValidationFailure
	require.ErrorAs(t, err, &vf)
	assert.True(t, vf.HasMessage("Narrative is required to originate a plan command"))
}

func TestPlan_OriginateForbidsCommandID(t *testing.T) {
	plan := commands.NewPlanFor("cmd-1")
	plan.SetNoteID("note-1")
	plan.SetNarrative("Follow up in two weeks")

	_, err := plan.Originate(context.Background())

	var vf *record.ValidationFailure
	require.ErrorAs(t, err, &vf)
	assert.True(t, vf.HasMessage("command_id should not be set for originate"))
}

func TestPlan_Edit(t *testing.T) {
	plan := commands.NewPlanFor("cmd-1")
	plan.SetNarrative("Revised plan")

	effect, err := plan.Edit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "EDIT_PLAN_COMMAND", effect.Type)

	parsed, err := record.ParsePayload(effect.Payload)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"command": "cmd-1",
		"data":    map[string]any{"narrative": "Revised plan"},
	}, parsed)
}

func TestPlan_EditWithNoChanges(t *testing.T) {
	plan := commands.NewPlanFor("cmd-1")

	_, err := plan.Edit(context.Background())

	assert.True(t, record.IsNoChanges(err))
}

func TestPlan_EditRequiresCommandID(t *testing.T) {
	plan := commands.NewPlan()
	plan.SetNarrative("Revised plan")

	_, err := plan.Edit(context.Background())

	var vf *record.ValidationFailure
	require.ErrorAs(t, err, &vf)
	require.Len(t, vf.Issues, 1)
	assert.Equal(t, "command_id", vf.Issues[0].Field)
}

func TestPlan_TerminalVerbsCarryCommandOnly(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name       string
		call       func(*commands.PlanCommand) (record.Effect, error)
		effectType string
	}{
		{"delete", func(p *commands.PlanCommand) (record.Effect, error) { return p.Delete(ctx) }, "DELETE_PLAN_COMMAND"},
		{"commit", func(p *commands.PlanCommand) (record.Effect, error) { return p.Commit(ctx) }, "COMMIT_PLAN_COMMAND"},
		{"enter_in_error", func(p *commands.PlanCommand) (record.Effect, error) { return p.EnterInError(ctx) }, "ENTER_IN_ERROR_PLAN_COMMAND"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan := commands.NewPlanFor("cmd-9")

			effect, err := tc.call(plan)

			require.NoError(t, err)
			assert.Equal(t, tc.effectType, effect.Type)
			parsed, err := record.ParsePayload(effect.Payload)
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"command": "cmd-9"}, parsed)
		})
	}
}

func TestPlan_CommitRequiresCommandID(t *testing.T) {
	plan := commands.NewPlan()

	_, err := plan.Commit(context.Background())

	var vf *record.ValidationFailure
	require.ErrorAs(t, err, &vf)
	require.Len(t, vf.Issues, 1)
	assert.Equal(t, record.IssueMissingField, vf.Issues[0].Kind)
	assert.Equal(t, "command_id", vf.Issues[0].Field)
}

func TestDefineType_PanicsOnSharedFieldRedeclaration(t *testing.T) {
	assert.Panics(t, func() {
		commands.DefineType("broken", record.Fields{commands.FieldNoteID: {}}, nil, nil)
	})
}
