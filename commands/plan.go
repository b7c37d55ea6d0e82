/*
plan.go - The plan command

PURPOSE:
  The simplest concrete command: a free-text narrative inside a note.
  Originating requires a narrative; edits carry only the dirty fields.
*/
package commands

import (
	"context"

	"github.com/carelane/effectkit/record"
)

const fieldNarrative = "narrative"

func narrativeRequired(rc record.RuleContext) ([]record.Issue, error) {
	if rc.Verb != Originate {
		return nil, nil
	}
	if !rc.Record.Present(fieldNarrative) {
		return []record.Issue{{
			Kind:    record.IssueMissingField,
			Field:   fieldNarrative,
			Message: "Narrative is required to originate a plan command",
		}}, nil
	}
	return nil, nil
}

var planType = DefineType(
	"plan",
	record.Fields{fieldNarrative: {}},
	[]string{fieldNarrative},
	[]record.RuleSet{{
		Name:  "plan",
		Rules: []record.Rule{narrativeRequired},
	}},
)

// PlanCommand is a free-text plan entry in a note.
type PlanCommand struct {
	Base
}

// NewPlan builds an empty plan command.
func NewPlan() *PlanCommand {
	return &PlanCommand{Base: NewBase(planType.New(nil))}
}

// NewPlanFor builds a plan command targeting an existing command instance.
func NewPlanFor(commandID string) *PlanCommand {
	return &PlanCommand{Base: NewBase(planType.New(record.Values{FieldCommandID: commandID}))}
}

// SetNarrative sets the plan narrative.
func (p *PlanCommand) SetNarrative(s string) { p.Record().Set(fieldNarrative, s) }

// Edit validates and emits the command's dirty data fields.
func (p *PlanCommand) Edit(ctx context.Context) (record.Effect, error) {
	return p.EditCmd(ctx)
}
