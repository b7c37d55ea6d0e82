/*
record.go - The dirty-tracking record instance

PURPOSE:
  A Record is a mutable instance of a Type. It snapshots its construction-time
  values as originals, then tracks which fields have been modified through
  attribute assignment. The dirty set drives update validation ("something must
  have changed"), immutability checks, and per-verb field visibility.

DIRTY TRACKING:
  dirty(field) == current[field] != original[field], using type-aware equality
  (decimal.Equal, time.Equal, DeepEqual fallback). Presence-tracked fields are
  the exception: they are dirty iff explicitly assigned after construction,
  regardless of value comparison. Construction-time values are never dirty.

OWNERSHIP:
  A Record is exclusively owned by the caller that constructed it. The engine
  never shares mutable state across records or goroutines; concurrent callers
  validating distinct records are trivially independent.

SEE ALSO:
  - types.go:     Type and field declarations
  - lifecycle.go: ValidateFor / Emit
*/
package record

import (
	"fmt"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
)

// Values maps field name to value. Used for construction and payload assembly.
type Values map[string]any

// =============================================================================
// RECORD - A mutable instance of a Type
// =============================================================================

// Record is one mutable instance of a record type.
type Record struct {
	typ      *Type
	current  map[string]any
	original map[string]any
	assigned map[string]bool // presence-tracked fields explicitly set after construction

	state        State
	validatedFor Verb
	lookup       any
}

// New constructs a Record with the given initial values. The initial values
// become the original snapshot: they are NOT dirty. A caller expressing an
// update constructs with the identifier, then assigns the changed fields.
//
// New panics on an undeclared field name: field names are package constants
// in domain code, so a mismatch is a definition bug, not input.
func (t *Type) New(initial Values) *Record {
	current := make(map[string]any, len(t.fields))
	original := make(map[string]any, len(t.fields))
	for f, v := range initial {
		t.mustHaveField(f)
		current[f] = v
		original[f] = v
	}
	return &Record{
		typ:      t,
		current:  current,
		original: original,
		assigned: make(map[string]bool),
		state:    StateUnvalidated,
	}
}

func (t *Type) mustHaveField(f string) {
	if _, ok := t.fields[f]; !ok {
		panic(fmt.Sprintf("record: type %s has no field %q", t.name, f))
	}
}

// Type returns the record's type configuration.
func (r *Record) Type() *Type { return r.typ }

// BindLookup attaches the read-only reference-data collaborator the type's
// rule functions expect. Validation rules receive it via RuleContext.Lookup.
func (r *Record) BindLookup(lookup any) { r.lookup = lookup }

// State returns the record's lifecycle state.
func (r *Record) State() State { return r.state }

// =============================================================================
// MUTATION AND INSPECTION
// =============================================================================

// Set assigns a field's current value. Any assignment drops the record back
// to the unvalidated state: stale validations must never leak into emission.
func (r *Record) Set(field string, value any) {
	r.typ.mustHaveField(field)
	r.current[field] = value
	if r.typ.fields[field].Presence {
		r.assigned[field] = true
	}
	r.state = StateUnvalidated
	r.validatedFor = ""
}

// Get returns a field's current value (nil when never set).
func (r *Record) Get(field string) any {
	r.typ.mustHaveField(field)
	return r.current[field]
}

// Present reports whether the field currently holds a non-nil value.
func (r *Record) Present(field string) bool {
	return !isNil(r.Get(field))
}

// Identifier returns the current identifier value, or nil when the type has
// no identifier scheme or the identifier was never set.
func (r *Record) Identifier() any {
	if r.typ.identifier == "" {
		return nil
	}
	return r.current[r.typ.identifier]
}

// Dirty reports whether a single field has been modified since construction.
func (r *Record) Dirty(field string) bool {
	r.typ.mustHaveField(field)
	if r.typ.fields[field].Presence {
		return r.assigned[field]
	}
	cur, hasCur := r.current[field]
	orig, hasOrig := r.original[field]
	if !hasCur && !hasOrig {
		return false
	}
	return !equalValues(cur, orig)
}

// DirtyFields returns the sorted names of all dirty fields.
func (r *Record) DirtyFields() []string {
	var dirty []string
	for _, f := range r.typ.fieldNames {
		if r.Dirty(f) {
			dirty = append(dirty, f)
		}
	}
	return dirty
}

// dirtyCountExcludingIdentifier backs the MinDirty verb check: the identifier
// names the instance, it is not a change.
func (r *Record) dirtyCountExcludingIdentifier() int {
	n := 0
	for _, f := range r.DirtyFields() {
		if f != r.typ.identifier {
			n++
		}
	}
	return n
}

// =============================================================================
// PER-VERB FIELD VISIBILITY
// =============================================================================

// ValuesFor returns the field values a verb exposes, per its declared
// Visibility. It performs no validation; callers wanting the wire payload go
// through ValidateFor + Emit.
func (r *Record) ValuesFor(verb Verb) (Values, error) {
	vs, ok := r.typ.Verb(verb)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no verb %q", ErrUnknownVerb, r.typ.name, verb)
	}

	vals := Values{}
	switch vs.Visibility {
	case VisibilityAll:
		for _, f := range r.typ.fieldNames {
			vals[f] = r.current[f]
		}
	case VisibilityDirty:
		for _, f := range r.DirtyFields() {
			vals[f] = r.current[f]
		}
		if id := r.typ.identifier; id != "" {
			vals[id] = r.current[id]
		}
	case VisibilityDeclared:
		for _, f := range vs.Visible {
			vals[f] = r.current[f]
		}
	case VisibilityIdentifierOnly:
		if id := r.typ.identifier; id != "" {
			vals[id] = r.current[id]
		}
	}
	return vals, nil
}

// =============================================================================
// VALUE EQUALITY - Type-aware comparison for dirty computation
// =============================================================================

func equalValues(a, b any) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	switch av := a.(type) {
	case decimal.Decimal:
		if bv, ok := b.(decimal.Decimal); ok {
			return av.Equal(bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Equal(bv)
		}
	}
	return reflect.DeepEqual(a, b)
}

// isNil treats both untyped nil and nil-valued typed pointers/slices/maps as
// absent. A field is "present" only when the caller supplied a value.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
