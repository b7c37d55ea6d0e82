/*
Package refdata defines the read-only reference-data boundary.

PURPOSE:
  Validation rules frequently need to answer "does entity of kind K with id X
  exist" and "what is field F of entity X". That is the entire contract: the
  engine never writes through this boundary, and it assumes lookups are
  synchronous and side-effect-free. The host's data store sits behind it.

KEY INTERFACES:
  Source: boolean-existence query + single-scalar-field query

IMPLEMENTATIONS:
  - refdata.Memory:  In-memory source for tests and examples
  - store/sqlite:    SQLite-backed source for tooling

SEE ALSO:
  - record/rules.go: Rule functions receive a context and call into a Source
  - claims/:         Declares its own richer read-only Directory for the
                     claim-payment rule engine
*/
package refdata

import "context"

// Kind names an entity kind ("patient", "staff", "practice_location", ...).
type Kind string

// Source is the read-only lookup collaborator. Both queries are synchronous
// and side-effect-free; no schema beyond identifier + scalar field exists at
// this boundary.
type Source interface {
	// Exists reports whether an entity of the given kind and id exists.
	Exists(ctx context.Context, kind Kind, id string) (bool, error)

	// Field returns one scalar field of an entity. ok is false when the
	// entity or the field is absent.
	Field(ctx context.Context, kind Kind, id, field string) (value string, ok bool, err error)
}
