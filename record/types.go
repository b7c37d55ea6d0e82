/*
Package record provides the core mutable-record engine for effect-emitting plugins.

PURPOSE:
  This package contains the domain-agnostic machinery every effect record in the
  SDK is built on. Whether the record describes a patient, a note command, or a
  claim payment posting, the same engine handles dirty-field tracking, per-verb
  validation, error aggregation, and serialization into wire effects.

KEY CONCEPTS IN THIS FILE (types.go):
  - Type: The immutable, declared-at-definition configuration of a record type
    (fields, identifier, verbs, rule chain)
  - FieldSpec/Fields: Field declarations, including presence-tracked fields
  - Verb/VerbSpec: A named operation and its declared contract
  - State: The validate/emit lifecycle state of a record instance

DESIGN PRINCIPLES:
  1. Declared, not inferred: Each verb's identifier rule, required fields, and
     field visibility are explicit properties of the VerbSpec. Nothing is
     derived from subtype behavior at runtime.
  2. Fail at definition time: NewType panics on inconsistent configuration
     (a verb naming an undeclared field, a duplicate verb) so a typo cannot
     silently disable tracking or validation.
  3. Precision: Monetary values use decimal.Decimal, never floats.

USAGE:
  var patientType = record.NewType(record.Config{
      Name:       "PATIENT",
      Identifier: "patient_id",
      Fields:     record.Fields{"patient_id": {}, "first_name": {}, ...},
      Verbs: []record.VerbSpec{{
          Verb:       record.Create,
          EffectType: "CREATE_PATIENT",
          Identifier: record.IdentifierForbidden,
          Required:   []string{"first_name", "last_name"},
          Visibility: record.VisibilityAll,
      }},
      Rules: []record.RuleSet{...},
  })

SEE ALSO:
  - record.go:    The Record instance and dirty tracking
  - lifecycle.go: ValidateFor / Emit state machine
  - rules.go:     RuleSet chains and the aggregation runner
  - wire.go:      Effect envelope and payload normalization
*/
package record

import (
	"fmt"
	"sort"
)

// =============================================================================
// FIELDS - Declared per record type
// =============================================================================

// FieldSpec declares a single field of a record type.
type FieldSpec struct {
	// Presence marks the field as tracked by assignment instead of by value
	// diff. Collection-typed fields use this: they are "dirty" once assigned
	// after construction, regardless of value comparison.
	Presence bool
}

// Fields maps field name to its declaration.
type Fields map[string]FieldSpec

// =============================================================================
// VERBS - Named operations with declared contracts
// =============================================================================

// Verb names an operation a record type supports.
type Verb string

// The common verbs. Record types may declare additional domain verbs
// (e.g. "originate", "send") - a Verb is just a declared name.
const (
	Create       Verb = "create"
	Update       Verb = "update"
	Delete       Verb = "delete"
	Commit       Verb = "commit"
	EnterInError Verb = "enter_in_error"
)

// IdentifierRule states what a verb demands of the record's identifier field.
type IdentifierRule int

const (
	// IdentifierIgnored: the verb does not care whether an identifier is set.
	IdentifierIgnored IdentifierRule = iota

	// IdentifierRequired: the verb needs an existing instance (update, delete,
	// commit and similar terminal verbs).
	IdentifierRequired

	// IdentifierForbidden: the verb creates a new instance, so a pre-set
	// identifier is a caller bug (create).
	IdentifierForbidden
)

// Visibility states which fields a verb exposes in its emitted payload.
type Visibility int

const (
	// VisibilityAll: every declared field (create and most terminal verbs).
	VisibilityAll Visibility = iota

	// VisibilityDirty: only dirty fields plus the identifier (update).
	VisibilityDirty

	// VisibilityDeclared: exactly the fields listed in VerbSpec.Visible.
	VisibilityDeclared

	// VisibilityIdentifierOnly: just the identifier (delete, commit).
	VisibilityIdentifierOnly
)

// VerbSpec is the declared contract of one verb on one record type.
type VerbSpec struct {
	Verb       Verb
	EffectType string

	Identifier IdentifierRule

	// Required fields must be present (non-nil) for the verb to validate.
	Required []string

	// Immutable fields must not be dirty for the verb to validate.
	Immutable []string

	// MinDirty is the minimum number of non-identifier dirty fields the verb
	// demands. Update verbs set this to 1; a shortfall is a NoChangesError.
	MinDirty int

	Visibility Visibility

	// Visible lists the exposed fields when Visibility is VisibilityDeclared.
	Visible []string
}

// =============================================================================
// TYPE - Immutable per-record-type configuration
// =============================================================================

// Config is the input to NewType.
type Config struct {
	// Name identifies the record type in error messages and effect tags.
	Name string

	// Identifier is the field holding the instance identifier, or "" when
	// the type has no identifier scheme.
	Identifier string

	Fields Fields

	Verbs []VerbSpec

	// Rules is the ordered validation chain: ancestor rule sets first, the
	// type's own set last. The runner concatenates issues across all sets.
	Rules []RuleSet
}

// Type is the validated, immutable configuration of a record type.
// Build one per record type at package init via NewType.
type Type struct {
	name       string
	identifier string
	fields     Fields
	fieldNames []string // sorted, for deterministic output
	verbs      map[Verb]VerbSpec
	rules      []RuleSet
}

// NewType validates cfg and returns the Type. It panics on inconsistent
// configuration: this is a definition-time bug, not a runtime condition, and
// record types are built once at package init.
func NewType(cfg Config) *Type {
	if cfg.Name == "" {
		panic("record: Config.Name is required")
	}
	if len(cfg.Fields) == 0 {
		panic(fmt.Sprintf("record: type %s declares no fields", cfg.Name))
	}
	if cfg.Identifier != "" {
		if _, ok := cfg.Fields[cfg.Identifier]; !ok {
			panic(fmt.Sprintf("record: type %s identifier %q is not a declared field", cfg.Name, cfg.Identifier))
		}
	}

	verbs := make(map[Verb]VerbSpec, len(cfg.Verbs))
	for _, vs := range cfg.Verbs {
		if vs.Verb == "" {
			panic(fmt.Sprintf("record: type %s declares a verb with no name", cfg.Name))
		}
		if _, dup := verbs[vs.Verb]; dup {
			panic(fmt.Sprintf("record: type %s declares verb %q twice", cfg.Name, vs.Verb))
		}
		if vs.Identifier != IdentifierIgnored && cfg.Identifier == "" {
			panic(fmt.Sprintf("record: type %s verb %q has an identifier rule but the type has no identifier field", cfg.Name, vs.Verb))
		}
		for _, lists := range [][]string{vs.Required, vs.Immutable, vs.Visible} {
			for _, f := range lists {
				if _, ok := cfg.Fields[f]; !ok {
					panic(fmt.Sprintf("record: type %s verb %q references undeclared field %q", cfg.Name, vs.Verb, f))
				}
			}
		}
		if vs.Visibility == VisibilityDeclared && len(vs.Visible) == 0 {
			panic(fmt.Sprintf("record: type %s verb %q uses VisibilityDeclared with no Visible fields", cfg.Name, vs.Verb))
		}
		verbs[vs.Verb] = vs
	}

	names := make([]string, 0, len(cfg.Fields))
	for f := range cfg.Fields {
		names = append(names, f)
	}
	sort.Strings(names)

	return &Type{
		name:       cfg.Name,
		identifier: cfg.Identifier,
		fields:     cfg.Fields,
		fieldNames: names,
		verbs:      verbs,
		rules:      cfg.Rules,
	}
}

// Name returns the record type's name.
func (t *Type) Name() string { return t.name }

// Identifier returns the identifier field name ("" when the type has none).
func (t *Type) Identifier() string { return t.identifier }

// Verb returns the declared spec for v.
func (t *Type) Verb(v Verb) (VerbSpec, bool) {
	vs, ok := t.verbs[v]
	return vs, ok
}

// =============================================================================
// STATE - Lifecycle of a record instance
// =============================================================================

// State is the validation lifecycle state of a Record.
type State int

const (
	// StateUnvalidated: fresh or mutated since the last validation pass.
	StateUnvalidated State = iota

	// StateValidated: ValidateFor succeeded; the record may emit that verb.
	StateValidated

	// StateRejected: the last validation pass failed. Terminal for that
	// attempt; correct the fields and re-validate, or discard the record.
	StateRejected

	// StateEmitted: an effect was produced. Emission is one-way; a further
	// emit requires another explicit validation pass.
	StateEmitted
)

func (s State) String() string {
	switch s {
	case StateUnvalidated:
		return "unvalidated"
	case StateValidated:
		return "validated"
	case StateRejected:
		return "rejected"
	case StateEmitted:
		return "emitted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
