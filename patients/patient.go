/*
Package patients implements the patient record effect.

PURPOSE:
  The canonical consumer of the dirty-tracking engine: a patient record is
  created with a handful of required scalars, updated by assigning only the
  fields that changed, and serialized so that updates carry just the dirty
  fields plus the identifier. Collection fields (contact points, addresses,
  external identifiers, preferred pharmacies) are presence-tracked: they ride
  along once assigned, never by value diff.

VERBS:
  create: identifier forbidden; first and last name required; all fields
          visible in the payload
  update: identifier required; at least one dirty field; only dirty fields
          plus the identifier are visible

REFERENCE CHECKS:
  default_location_id and default_provider_id are verified against the
  refdata source (kinds "practice_location" and "staff").

SEE ALSO:
  - record:  The engine this package is glue over
  - refdata: The lookup collaborator
*/
package patients

import (
	"context"
	"fmt"

	"github.com/carelane/effectkit/record"
	"github.com/carelane/effectkit/refdata"
)

// Reference-data kinds this package queries.
const (
	KindPatient          refdata.Kind = "patient"
	KindPracticeLocation refdata.Kind = "practice_location"
	KindStaff            refdata.Kind = "staff"
)

// PersonSex is the sex-at-birth coding.
type PersonSex string

const (
	SexFemale  PersonSex = "F"
	SexMale    PersonSex = "M"
	SexOther   PersonSex = "OTH"
	SexUnknown PersonSex = "UNK"
)

// =============================================================================
// NESTED VALUE OBJECTS
// =============================================================================

// ContactPoint is a phone/email/etc. contact for the patient.
type ContactPoint struct {
	System     string
	Value      string
	Use        string
	Rank       int
	HasConsent *bool
}

// Payload implements record.Payloader.
func (c ContactPoint) Payload() record.Values {
	return record.Values{
		"system":      c.System,
		"value":       c.Value,
		"use":         c.Use,
		"rank":        c.Rank,
		"has_consent": c.HasConsent,
	}
}

// Address is a postal address for the patient.
type Address struct {
	Line1      string
	Line2      string
	City       string
	District   string
	StateCode  string
	PostalCode string
	Country    string
	Use        string
	Type       string
}

// Payload implements record.Payloader.
func (a Address) Payload() record.Values {
	return record.Values{
		"line1":       a.Line1,
		"line2":       strOrNil(a.Line2),
		"city":        strOrNil(a.City),
		"district":    strOrNil(a.District),
		"state_code":  strOrNil(a.StateCode),
		"postal_code": strOrNil(a.PostalCode),
		"country":     a.Country,
		"use":         a.Use,
		"type":        a.Type,
	}
}

// ExternalIdentifier links the patient to an external system.
type ExternalIdentifier struct {
	System string
	Value  string
}

// Payload implements record.Payloader.
func (e ExternalIdentifier) Payload() record.Values {
	return record.Values{"system": strOrNil(e.System), "value": e.Value}
}

// PreferredPharmacy is a pharmacy preference by NCPDP id.
type PreferredPharmacy struct {
	NCPDPID string
	Default bool
}

// Payload implements record.Payloader.
func (p PreferredPharmacy) Payload() record.Values {
	return record.Values{"ncpdp_id": p.NCPDPID, "default": p.Default}
}

// =============================================================================
// RECORD TYPE
// =============================================================================

const (
	fieldPatientID           = "patient_id"
	fieldFirstName           = "first_name"
	fieldLastName            = "last_name"
	fieldMiddleName          = "middle_name"
	fieldBirthdate           = "birthdate"
	fieldPrefix              = "prefix"
	fieldSuffix              = "suffix"
	fieldSexAtBirth          = "sex_at_birth"
	fieldNickname            = "nickname"
	fieldAdministrativeNote  = "administrative_note"
	fieldClinicalNote        = "clinical_note"
	fieldDefaultLocationID   = "default_location_id"
	fieldDefaultProviderID   = "default_provider_id"
	fieldContactPoints       = "contact_points"
	fieldAddresses           = "addresses"
	fieldExternalIdentifiers = "external_identifiers"
	fieldPreferredPharmacies = "preferred_pharmacies"
)

func patientRefRules() record.RuleSet {
	return record.RuleSet{
		Name: "patient_references",
		Rules: []record.Rule{
			existsRule(fieldDefaultLocationID, KindPracticeLocation, "Practice location"),
			existsRule(fieldDefaultProviderID, KindStaff, "Provider"),
			patientExistsOnUpdate,
		},
	}
}

// existsRule verifies an optional reference field resolves against the
// refdata source.
func existsRule(field string, kind refdata.Kind, label string) record.Rule {
	return func(rc record.RuleContext) ([]record.Issue, error) {
		id, _ := rc.Record.Get(field).(string)
		if id == "" {
			return nil, nil
		}
		src, ok := rc.Lookup.(refdata.Source)
		if !ok {
			return nil, fmt.Errorf("patients: no refdata.Source bound to %s", rc.Record.Type().Name())
		}
		exists, err := src.Exists(rc.Context, kind, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			return []record.Issue{record.ReferenceIssue(
				field,
				fmt.Sprintf("%s with ID %s does not exist.", label, id),
				id,
			)}, nil
		}
		return nil, nil
	}
}

func patientExistsOnUpdate(rc record.RuleContext) ([]record.Issue, error) {
	if rc.Verb != record.Update {
		return nil, nil
	}
	id, _ := rc.Record.Get(fieldPatientID).(string)
	if id == "" {
		return nil, nil // the identifier rule already reported the absence
	}
	src, ok := rc.Lookup.(refdata.Source)
	if !ok {
		return nil, fmt.Errorf("patients: no refdata.Source bound to %s", rc.Record.Type().Name())
	}
	exists, err := src.Exists(rc.Context, KindPatient, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []record.Issue{record.ReferenceIssue(
			fieldPatientID,
			fmt.Sprintf("Patient with ID %s does not exist.", id),
			id,
		)}, nil
	}
	return nil, nil
}

var patientType = record.NewType(record.Config{
	Name:       "PATIENT",
	Identifier: fieldPatientID,
	Fields: record.Fields{
		fieldPatientID:           {},
		fieldFirstName:           {},
		fieldLastName:            {},
		fieldMiddleName:          {},
		fieldBirthdate:           {},
		fieldPrefix:              {},
		fieldSuffix:              {},
		fieldSexAtBirth:          {},
		fieldNickname:            {},
		fieldAdministrativeNote:  {},
		fieldClinicalNote:        {},
		fieldDefaultLocationID:   {},
		fieldDefaultProviderID:   {},
		fieldContactPoints:       {Presence: true},
		fieldAddresses:           {Presence: true},
		fieldExternalIdentifiers: {Presence: true},
		fieldPreferredPharmacies: {Presence: true},
	},
	Verbs: []record.VerbSpec{
		{
			Verb:       record.Create,
			EffectType: "CREATE_PATIENT",
			Identifier: record.IdentifierForbidden,
			Required:   []string{fieldFirstName, fieldLastName},
			Visibility: record.VisibilityAll,
		},
		{
			Verb:       record.Update,
			EffectType: "UPDATE_PATIENT",
			Identifier: record.IdentifierRequired,
			MinDirty:   1,
			Visibility: record.VisibilityDirty,
		},
	},
	Rules: []record.RuleSet{patientRefRules()},
})

// =============================================================================
// PATIENT
// =============================================================================

// Patient is a mutable patient effect record.
type Patient struct {
	rec *record.Record
}

// New builds an empty patient record bound to the refdata source. Use this
// for creates; set fields, then call Create.
func New(src refdata.Source) *Patient {
	return fromValues(src, nil)
}

// ForUpdate builds a patient record carrying the identifier of an existing
// patient. Fields assigned afterwards form the update's dirty set.
func ForUpdate(src refdata.Source, patientID string) *Patient {
	return fromValues(src, record.Values{fieldPatientID: patientID})
}

func fromValues(src refdata.Source, initial record.Values) *Patient {
	rec := patientType.New(initial)
	rec.BindLookup(src)
	return &Patient{rec: rec}
}

// Record exposes the underlying record for state and dirty inspection.
func (p *Patient) Record() *record.Record { return p.rec }

func (p *Patient) SetFirstName(s string) { p.rec.Set(fieldFirstName, s) }
func (p *Patient) SetLastName(s string) { p.rec.Set(fieldLastName, s) }
func (p *Patient) SetMiddleName(s string) { p.rec.Set(fieldMiddleName, s) }
func (p *Patient) SetBirthdate(d record.Date) { p.rec.Set(fieldBirthdate, d) }
func (p *Patient) SetPrefix(s string) { p.rec.Set(fieldPrefix, s) }
func (p *Patient) SetSuffix(s string) { p.rec.Set(fieldSuffix, s) }
func (p *Patient) SetSexAtBirth(s PersonSex) { p.rec.Set(fieldSexAtBirth, s) }
func (p *Patient) SetNickname(s string) { p.rec.Set(fieldNickname, s) }
func (p *Patient) SetAdministrativeNote(s string) { p.rec.Set(fieldAdministrativeNote, s) }
func (p *Patient) SetClinicalNote(s string) { p.rec.Set(fieldClinicalNote, s) }
func (p *Patient) SetDefaultLocationID(s string) { p.rec.Set(fieldDefaultLocationID, s) }
func (p *Patient) SetDefaultProviderID(s string) { p.rec.Set(fieldDefaultProviderID, s) }

func (p *Patient) SetContactPoints(v []ContactPoint) { p.rec.Set(fieldContactPoints, v) }
func (p *Patient) SetAddresses(v []Address) { p.rec.Set(fieldAddresses, v) }
func (p *Patient) SetExternalIdentifiers(v []ExternalIdentifier) {
	p.rec.Set(fieldExternalIdentifiers, v)
}
func (p *Patient) SetPreferredPharmacies(v []PreferredPharmacy) {
	p.rec.Set(fieldPreferredPharmacies, v)
}

// Create validates and emits the CREATE_PATIENT effect.
func (p *Patient) Create(ctx context.Context) (record.Effect, error) {
	return p.rec.Apply(ctx, record.Create)
}

// Update validates and emits the UPDATE_PATIENT effect carrying only the
// dirty fields plus the identifier.
func (p *Patient) Update(ctx context.Context) (record.Effect, error) {
	return p.rec.Apply(ctx, record.Update)
}

func strOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
