/*
Package commands implements note-command effects.

PURPOSE:
  Commands are the other record family of the SDK: structured entries inside
  a clinical note. Each command type shares one verb set with per-verb wire
  shapes that differ from the data envelope:

    originate:      {"command": null, "note": <note_id>, "data": {...}, "line_number": -1}
    edit:           {"command": <command_id>, "data": {...}}
    delete:         {"command": <command_id>}
    commit:         {"command": <command_id>}
    enter_in_error: {"command": <command_id>}

  originate forbids a pre-set command identifier and requires the note;
  every other verb requires the command identifier. The shared factory
  declares this contract once; concrete commands add their fields and rules.

KEY COMPONENTS:
  Base:        The shared command record wrapper (note/command ids, verbs)
  DefineType:  Factory building a command Type from its fields and rules

SEE ALSO:
  - plan.go: PlanCommand, a concrete command built on the factory
*/
package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/carelane/effectkit/record"
)

// Command verbs beyond the shared create/update set.
const (
	Originate = record.Verb("originate")
	Edit      = record.Verb("edit")
)

// Shared command fields.
const (
	FieldCommandID = "command_id"
	FieldNoteID    = "note_id"
)

// defaultLineNumber asks the host to append the command to the note.
const defaultLineNumber = -1

// =============================================================================
// TYPE FACTORY
// =============================================================================

// DefineType builds a command record Type. key is the command's wire key
// (e.g. "plan"), used to derive effect type tags such as
// ORIGINATE_PLAN_COMMAND. fields are the command's own data fields; they are
// merged with the shared identifier fields. dataFields lists which of them
// ride in the originate/edit data object.
func DefineType(key string, fields record.Fields, dataFields []string, rules []record.RuleSet) *record.Type {
	merged := record.Fields{
		FieldCommandID: {},
		FieldNoteID:    {},
	}
	for f, spec := range fields {
		if f == FieldCommandID || f == FieldNoteID {
			panic(fmt.Sprintf("commands: %q redeclares shared field %q", key, f))
		}
		merged[f] = spec
	}

	tag := strings.ToUpper(key)
	return record.NewType(record.Config{
		Name:       key,
		Identifier: FieldCommandID,
		Fields:     merged,
		Verbs: []record.VerbSpec{
			{
				Verb:       Originate,
				EffectType: "ORIGINATE_" + tag + "_COMMAND",
				Identifier: record.IdentifierForbidden,
				Required:   []string{FieldNoteID},
				Visibility: record.VisibilityDeclared,
				Visible:    dataFields,
			},
			{
				Verb:       Edit,
				EffectType: "EDIT_" + tag + "_COMMAND",
				Identifier: record.IdentifierRequired,
				MinDirty:   1,
				Visibility: record.VisibilityDirty,
			},
			{
				Verb:       record.Delete,
				EffectType: "DELETE_" + tag + "_COMMAND",
				Identifier: record.IdentifierRequired,
				Visibility: record.VisibilityIdentifierOnly,
			},
			{
				Verb:       record.Commit,
				EffectType: "COMMIT_" + tag + "_COMMAND",
				Identifier: record.IdentifierRequired,
				Visibility: record.VisibilityIdentifierOnly,
			},
			{
				Verb:       record.EnterInError,
				EffectType: "ENTER_IN_ERROR_" + tag + "_COMMAND",
				Identifier: record.IdentifierRequired,
				Visibility: record.VisibilityIdentifierOnly,
			},
		},
		Rules: rules,
	})
}

// =============================================================================
// BASE - Shared command behavior
// =============================================================================

// Base wraps a command record with the shared verb methods. Concrete command
// types embed it.
type Base struct {
	rec *record.Record
}

// NewBase wraps a freshly built record.
func NewBase(rec *record.Record) Base { return Base{rec: rec} }

// Record exposes the underlying record.
func (b *Base) Record() *record.Record { return b.rec }

// SetNoteID targets the note the command originates in.
func (b *Base) SetNoteID(id string) { b.rec.Set(FieldNoteID, id) }

// SetCommandID targets an existing command instance.
func (b *Base) SetCommandID(id string) { b.rec.Set(FieldCommandID, id) }

// Originate validates and emits the effect inserting the command into its
// note.
func (b *Base) Originate(ctx context.Context) (record.Effect, error) {
	vals, err := b.rec.ValuesFor(Originate)
	if err != nil {
		return record.Effect{}, err
	}
	return b.rec.ApplyPayload(ctx, Originate, map[string]any{
		"command":     nil,
		"note":        b.rec.Get(FieldNoteID),
		"data":        vals,
		"line_number": defaultLineNumber,
	})
}

// EditCmd validates and emits the effect updating the command's dirty data
// fields.
func (b *Base) EditCmd(ctx context.Context) (record.Effect, error) {
	vals, err := b.rec.ValuesFor(Edit)
	if err != nil {
		return record.Effect{}, err
	}
	delete(vals, FieldCommandID)
	delete(vals, FieldNoteID)
	return b.rec.ApplyPayload(ctx, Edit, map[string]any{
		"command": b.rec.Get(FieldCommandID),
		"data":    vals,
	})
}

// Delete validates and emits the effect removing the command from its note.
func (b *Base) Delete(ctx context.Context) (record.Effect, error) {
	return b.commandOnly(ctx, record.Delete)
}

// Commit validates and emits the effect finalizing the command.
func (b *Base) Commit(ctx context.Context) (record.Effect, error) {
	return b.commandOnly(ctx, record.Commit)
}

// EnterInError validates and emits the effect marking the committed command
// entered-in-error.
func (b *Base) EnterInError(ctx context.Context) (record.Effect, error) {
	return b.commandOnly(ctx, record.EnterInError)
}

func (b *Base) commandOnly(ctx context.Context, verb record.Verb) (record.Effect, error) {
	return b.rec.ApplyPayload(ctx, verb, map[string]any{
		"command": b.rec.Get(FieldCommandID),
	})
}
