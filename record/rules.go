/*
rules.go - Rule sets and the aggregation runner

PURPOSE:
  Domain validation is expressed as ordered chains of rule functions instead of
  an inheritance hierarchy calling super(). A Type declares its chain with the
  shared (ancestor) rule sets first and its own set last; the runner invokes
  every set and concatenates the findings. A parent's findings are never
  discarded and never stop a child's set from running - "missing field A" and
  "referenced entity B does not exist" are reported in the same failure.

SHORT-CIRCUITING:
  Only WITHIN one rule set may evaluation stop early (ShortCircuit). Claim
  payment uses this: a missing claim makes checking its coverages meaningless,
  so the claim-level set stops at the first failing rule. Sets never
  short-circuit each other.

ERROR CHANNEL:
  A Rule returns (issues, error). Issues are validation findings. The error
  return is reserved for reference-data collaborator failures (I/O); it aborts
  the validation pass without producing a ValidationFailure.

SEE ALSO:
  - lifecycle.go: Invokes the chain from ValidateFor
  - errors.go:    Issue and ValidationFailure
*/
package record

import "context"

// =============================================================================
// RULES
// =============================================================================

// RuleContext is what a rule function sees: the record under validation, the
// requested verb, and the caller's context for reference-data lookups.
type RuleContext struct {
	Context context.Context
	Record  *Record
	Verb    Verb

	// Lookup is the read-only reference-data collaborator bound to the
	// record (Record.BindLookup). Domain rule functions assert it to their
	// own lookup interface (refdata.Source, claims.Directory, ...). Nil when
	// the record type performs no reference checks.
	Lookup any
}

// Rule is one validation check. It returns every issue it found; returning
// no issues means the check passed.
type Rule func(rc RuleContext) ([]Issue, error)

// RuleSet is an ordered group of rules contributed by one layer of a domain
// type. Sets are composed into a chain on the Type.
type RuleSet struct {
	// Name identifies the set in definition-time diagnostics.
	Name string

	// ShortCircuit stops this set after the first rule that reports issues.
	// The remaining sets in the chain still run.
	ShortCircuit bool

	Rules []Rule
}

// runChain evaluates every set in order and concatenates all findings.
func runChain(rc RuleContext, sets []RuleSet) ([]Issue, error) {
	var all []Issue
	for _, set := range sets {
		for _, rule := range set.Rules {
			issues, err := rule(rc)
			if err != nil {
				return nil, err
			}
			all = append(all, issues...)
			if set.ShortCircuit && len(issues) > 0 {
				break
			}
		}
	}
	return all, nil
}
