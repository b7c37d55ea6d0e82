/*
errors.go - Error taxonomy for the record engine

PURPOSE:
  All error types the engine surfaces, in one place. Validation problems are
  aggregated: one ValidateFor call returns a single ValidationFailure carrying
  every independently-diagnosable Issue found. The engine never swallows an
  error and never raises on the first issue when later checks are independent.

ERROR CATEGORIES:
  1. Issues - individual validation findings (missing field, bad reference...)
  2. ValidationFailure - the aggregate raised per validation attempt
  3. NoChangesError - a zero-dirty update; raised alone, precludes the rest
  4. Sentinels - lifecycle misuse (unknown verb, emit without validation)

USAGE:
  Callers branch with errors.Is / errors.As:

    if err := patient.Update(ctx); err != nil {
        var vf *record.ValidationFailure
        if errors.As(err, &vf) {
            for _, issue := range vf.Issues { ... }
        }
    }

SEE ALSO:
  - lifecycle.go: Produces these errors
  - rules.go:     Rule functions produce Issues
*/
package record

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidationFailed is the sentinel behind every ValidationFailure.
	ErrValidationFailed = errors.New("validation failed")

	// ErrNoChanges is the sentinel behind NoChangesError.
	ErrNoChanges = errors.New("no dirty fields for update")

	// ErrUnknownVerb is returned when a verb was never declared for the type.
	ErrUnknownVerb = errors.New("verb not declared for record type")

	// ErrNotValidated is returned by Emit when the record has not passed a
	// validation pass for the requested verb since its last mutation or
	// emission.
	ErrNotValidated = errors.New("record not validated for this operation")
)

// =============================================================================
// ISSUES - Individual validation findings
// =============================================================================

// IssueKind classifies a single validation finding.
type IssueKind string

const (
	// IssueMissingField: a field the verb requires is absent.
	IssueMissingField IssueKind = "missing_field"

	// IssueImmutableField: a field the verb forbids to change is dirty.
	IssueImmutableField IssueKind = "immutable_field"

	// IssueReferenceNotFound: an identifier did not resolve against the
	// reference-data collaborator.
	IssueReferenceNotFound IssueKind = "reference_not_found"

	// IssueBusinessRule: a domain-specific cross-field or cross-record rule.
	IssueBusinessRule IssueKind = "business_rule"
)

// Issue is one validation finding: the field (or "value" for cross-field
// findings), a human-readable message, and the offending value.
type Issue struct {
	Kind    IssueKind
	Field   string
	Message string
	Value   any
}

func (i Issue) String() string {
	return fmt.Sprintf("%s [field=%s, value=%v]", i.Message, i.Field, i.Value)
}

// BusinessIssue builds an IssueBusinessRule finding against the synthetic
// "value" field, matching the shape domain rule functions report most often.
func BusinessIssue(message string, value any) Issue {
	return Issue{Kind: IssueBusinessRule, Field: "value", Message: message, Value: value}
}

// ReferenceIssue builds an IssueReferenceNotFound finding.
func ReferenceIssue(field, message string, value any) Issue {
	return Issue{Kind: IssueReferenceNotFound, Field: field, Message: message, Value: value}
}

// =============================================================================
// AGGREGATED ERRORS
// =============================================================================

// ValidationFailure carries every Issue found in one ValidateFor pass.
type ValidationFailure struct {
	Record string
	Verb   Verb
	Issues []Issue
}

func (e *ValidationFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation error(s) for %s (%s):", len(e.Issues), e.Record, e.Verb)
	for _, issue := range e.Issues {
		b.WriteString("\n  ")
		b.WriteString(issue.String())
	}
	return b.String()
}

func (e *ValidationFailure) Unwrap() error { return ErrValidationFailed }

// HasMessage reports whether any issue's message contains substr. Test and
// caller convenience for matching specific findings.
func (e *ValidationFailure) HasMessage(substr string) bool {
	for _, issue := range e.Issues {
		if strings.Contains(issue.Message, substr) {
			return true
		}
	}
	return false
}

// NoChangesError is raised alone when an update-style verb finds zero dirty
// fields. It is not aggregated: with nothing changed there is nothing further
// worth validating, and retrying without new input cannot succeed.
type NoChangesError struct {
	Record string
	Verb   Verb
}

func (e *NoChangesError) Error() string {
	return fmt.Sprintf("%s: no fields were modified for %s", e.Record, e.Verb)
}

func (e *NoChangesError) Unwrap() error { return ErrNoChanges }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if err is an aggregated validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidationFailed)
}

// IsNoChanges returns true if err is a zero-dirty update failure.
func IsNoChanges(err error) bool {
	return errors.Is(err, ErrNoChanges)
}

// IssuesOf extracts the aggregated issues from err, or nil when err is not a
// ValidationFailure.
func IssuesOf(err error) []Issue {
	var vf *ValidationFailure
	if errors.As(err, &vf) {
		return vf.Issues
	}
	return nil
}
