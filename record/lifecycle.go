/*
lifecycle.go - The validate/emit state machine

PURPOSE:
  Drives a Record through unvalidated -> validated -> emitted, with a
  short-circuit to rejected on validation failure. Emission is gated: an
  effect can only be produced from a record that passed an explicit
  ValidateFor for the SAME verb, with no mutation in between. The gate is
  enforced, not documented - Set drops the state back to unvalidated, and
  Emit is one-way, so a stale validation can never leak into a second effect.

VALIDATION ORDER (one ValidateFor pass):
  1. Verb lookup - unknown verbs are caller bugs, reported immediately.
  2. MinDirty - a zero-change update is a NoChangesError, raised ALONE:
     nothing else is worth diagnosing without new input.
  3. Identifier rule, required fields, immutable fields - independent checks,
     all findings collected.
  4. The rule chain - domain rule sets, findings concatenated onto 3's.
  5. Any findings -> rejected + one aggregated ValidationFailure.

SEE ALSO:
  - rules.go: The chain invoked in step 4
  - wire.go:  Payload assembly used by Emit
*/
package record

import (
	"context"
	"fmt"
)

// =============================================================================
// VALIDATE
// =============================================================================

// ValidateFor runs the full validation pass for verb. On success the record
// moves to StateValidated and may emit that verb. On failure it moves to
// StateRejected and the returned error carries every issue found.
func (r *Record) ValidateFor(ctx context.Context, verb Verb) error {
	vs, ok := r.typ.Verb(verb)
	if !ok {
		return fmt.Errorf("%w: %s has no verb %q", ErrUnknownVerb, r.typ.name, verb)
	}

	// A zero-change update precludes meaningful validation. Raised alone.
	if vs.MinDirty > 0 && r.dirtyCountExcludingIdentifier() < vs.MinDirty {
		r.state = StateRejected
		return &NoChangesError{Record: r.typ.name, Verb: verb}
	}

	var issues []Issue
	issues = append(issues, r.identifierIssues(vs)...)
	issues = append(issues, r.requiredFieldIssues(vs)...)
	issues = append(issues, r.immutableFieldIssues(vs)...)

	chainIssues, err := runChain(RuleContext{Context: ctx, Record: r, Verb: verb, Lookup: r.lookup}, r.typ.rules)
	if err != nil {
		// Collaborator failure: the pass did not complete, no verdict.
		r.state = StateUnvalidated
		return fmt.Errorf("%s %s validation: %w", r.typ.name, verb, err)
	}
	issues = append(issues, chainIssues...)

	if len(issues) > 0 {
		r.state = StateRejected
		return &ValidationFailure{Record: r.typ.name, Verb: verb, Issues: issues}
	}

	r.state = StateValidated
	r.validatedFor = verb
	return nil
}

func (r *Record) identifierIssues(vs VerbSpec) []Issue {
	id := r.typ.identifier
	switch vs.Identifier {
	case IdentifierForbidden:
		if r.Present(id) {
			return []Issue{{
				Kind:    IssueBusinessRule,
				Field:   id,
				Message: fmt.Sprintf("%s should not be set for %s", id, vs.Verb),
				Value:   r.Get(id),
			}}
		}
	case IdentifierRequired:
		if !r.Present(id) {
			return []Issue{{
				Kind:    IssueMissingField,
				Field:   id,
				Message: fmt.Sprintf("%s is required for %s", id, vs.Verb),
				Value:   nil,
			}}
		}
	}
	return nil
}

func (r *Record) requiredFieldIssues(vs VerbSpec) []Issue {
	var issues []Issue
	for _, f := range vs.Required {
		if !r.Present(f) {
			issues = append(issues, Issue{
				Kind:    IssueMissingField,
				Field:   f,
				Message: fmt.Sprintf("%s is required for %s", f, vs.Verb),
				Value:   nil,
			})
		}
	}
	return issues
}

func (r *Record) immutableFieldIssues(vs VerbSpec) []Issue {
	var issues []Issue
	for _, f := range vs.Immutable {
		if r.Dirty(f) {
			issues = append(issues, Issue{
				Kind:    IssueImmutableField,
				Field:   f,
				Message: fmt.Sprintf("%s may not be modified by %s", f, vs.Verb),
				Value:   r.Get(f),
			})
		}
	}
	return issues
}

// =============================================================================
// EMIT
// =============================================================================

// Emit produces the verb's effect with the default {"data": {...}} payload
// envelope, built from the verb's declared field visibility. The record must
// be validated for exactly this verb; emission moves it to StateEmitted, so a
// second emission requires another explicit validation pass.
func (r *Record) Emit(verb Verb) (Effect, error) {
	vals, err := r.ValuesFor(verb)
	if err != nil {
		return Effect{}, err
	}
	return r.EmitPayload(verb, map[string]any{"data": vals})
}

// EmitPayload is Emit with a caller-assembled payload object, for verbs whose
// wire shape is not the data envelope (e.g. command verbs). The lifecycle
// gate is identical.
func (r *Record) EmitPayload(verb Verb, payload map[string]any) (Effect, error) {
	vs, ok := r.typ.Verb(verb)
	if !ok {
		return Effect{}, fmt.Errorf("%w: %s has no verb %q", ErrUnknownVerb, r.typ.name, verb)
	}
	if r.state != StateValidated || r.validatedFor != verb {
		return Effect{}, fmt.Errorf("%w: %s is %s (validated for %q, emitting %q)",
			ErrNotValidated, r.typ.name, r.state, r.validatedFor, verb)
	}

	encoded, err := MarshalPayload(payload)
	if err != nil {
		return Effect{}, fmt.Errorf("%s %s payload: %w", r.typ.name, verb, err)
	}

	r.state = StateEmitted
	r.validatedFor = ""
	return Effect{Type: vs.EffectType, Payload: encoded}, nil
}

// Apply is the common validate-then-emit path verb methods use: one explicit
// validation pass followed by emission of the default payload envelope.
func (r *Record) Apply(ctx context.Context, verb Verb) (Effect, error) {
	if err := r.ValidateFor(ctx, verb); err != nil {
		return Effect{}, err
	}
	return r.Emit(verb)
}

// ApplyPayload is Apply for verbs with caller-assembled payload shapes.
func (r *Record) ApplyPayload(ctx context.Context, verb Verb, payload map[string]any) (Effect, error) {
	if err := r.ValidateFor(ctx, verb); err != nil {
		return Effect{}, err
	}
	return r.EmitPayload(verb, payload)
}
