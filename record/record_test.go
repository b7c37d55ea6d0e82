/*
record_test.go - Dirty-tracking behavior

ORGANIZATION:
  1. Dirty set growth - empty at construction, grows only via assignment
  2. Type-aware equality - decimal/time comparisons, revert-to-original
  3. Presence-tracked fields - dirty by assignment, not by value diff
  4. Per-verb field visibility
*/
package record_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/effectkit/record"
)

// widgetType is the shared test record type. "send" exists to exercise
// immutable fields and declared visibility.
var widgetType = record.NewType(record.Config{
	Name:       "WIDGET",
	Identifier: "widget_id",
	Fields: record.Fields{
		"widget_id": {},
		"name":      {},
		"price":     {},
		"tags":      {Presence: true},
	},
	Verbs: []record.VerbSpec{
		{
			Verb:       record.Create,
			EffectType: "CREATE_WIDGET",
			Identifier: record.IdentifierForbidden,
			Required:   []string{"name"},
			Visibility: record.VisibilityAll,
		},
		{
			Verb:       record.Update,
			EffectType: "UPDATE_WIDGET",
			Identifier: record.IdentifierRequired,
			MinDirty:   1,
			Visibility: record.VisibilityDirty,
		},
		{
			Verb:       record.Delete,
			EffectType: "DELETE_WIDGET",
			Identifier: record.IdentifierRequired,
			Visibility: record.VisibilityIdentifierOnly,
		},
		{
			Verb:       record.Verb("send"),
			EffectType: "SEND_WIDGET",
			Identifier: record.IdentifierRequired,
			Immutable:  []string{"price"},
			Visibility: record.VisibilityDeclared,
			Visible:    []string{"widget_id", "name"},
		},
	},
})

func TestDirtyFields_EmptyAfterConstruction(t *testing.T) {
	// GIVEN a record constructed with initial values
	rec := widgetType.New(record.Values{
		"widget_id": "w-1",
		"name":      "gizmo",
		"price":     decimal.NewFromInt(10),
		"tags":      []string{"a"},
	})

	// THEN nothing is dirty - construction values are the original snapshot
	assert.Empty(t, rec.DirtyFields())
	assert.False(t, rec.Dirty("name"))
	assert.False(t, rec.Dirty("tags"))
}

func TestDirtyFields_GrowOnlyThroughAssignment(t *testing.T) {
	rec := widgetType.New(record.Values{"name": "gizmo"})

	// WHEN a field is assigned a new value
	rec.Set("name", "doohickey")
	assert.Equal(t, []string{"name"}, rec.DirtyFields())

	// AND another field is assigned
	rec.Set("price", decimal.NewFromInt(3))
	assert.Equal(t, []string{"name", "price"}, rec.DirtyFields())
}

func TestDirtyFields_RevertToOriginalClearsDirty(t *testing.T) {
	rec := widgetType.New(record.Values{"name": "gizmo"})

	rec.Set("name", "doohickey")
	require.True(t, rec.Dirty("name"))

	// WHEN the field is set back to its construction-time value
	rec.Set("name", "gizmo")

	// THEN it is no longer dirty - dirtiness is a value diff, not a touch log
	assert.False(t, rec.Dirty("name"))
	assert.Empty(t, rec.DirtyFields())
}

func TestDirtyFields_DecimalEqualityIsValueBased(t *testing.T) {
	// GIVEN a price of 1 constructed from an int
	rec := widgetType.New(record.Values{"price": decimal.NewFromInt(1)})

	// WHEN assigned the same value in a different representation
	rec.Set("price", decimal.RequireFromString("1.00"))

	// THEN the field is not dirty: 1 == 1.00
	assert.False(t, rec.Dirty("price"))
}

func TestPresenceFields_DirtyOnceAssigned(t *testing.T) {
	// GIVEN a presence-tracked field set at construction
	rec := widgetType.New(record.Values{"tags": []string{"a"}})
	assert.False(t, rec.Dirty("tags"), "construction does not count as assignment")

	// WHEN assigned after construction, even with an identical value
	rec.Set("tags", []string{"a"})

	// THEN the field is dirty: presence fields track assignment, not diff
	assert.True(t, rec.Dirty("tags"))
}

func TestPresent_TreatsTypedNilAsAbsent(t *testing.T) {
	rec := widgetType.New(nil)
	assert.False(t, rec.Present("price"))

	rec.Set("price", (*decimal.Decimal)(nil))
	assert.False(t, rec.Present("price"))

	rec.Set("price", decimal.NewFromInt(2))
	assert.True(t, rec.Present("price"))
}

func TestValuesFor_Visibility(t *testing.T) {
	rec := widgetType.New(record.Values{
		"widget_id": "w-1",
		"name":      "gizmo",
		"price":     decimal.NewFromInt(10),
	})
	rec.Set("name", "doohickey")

	// create: every declared field
	all, err := rec.ValuesFor(record.Create)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Contains(t, all, "tags")

	// update: dirty fields plus the identifier
	dirty, err := rec.ValuesFor(record.Update)
	require.NoError(t, err)
	assert.Equal(t, record.Values{"name": "doohickey", "widget_id": "w-1"}, dirty)

	// delete: identifier only
	idOnly, err := rec.ValuesFor(record.Delete)
	require.NoError(t, err)
	assert.Equal(t, record.Values{"widget_id": "w-1"}, idOnly)

	// send: the declared list
	declared, err := rec.ValuesFor(record.Verb("send"))
	require.NoError(t, err)
	assert.Equal(t, record.Values{"widget_id": "w-1", "name": "doohickey"}, declared)
}

func TestValuesFor_UnknownVerb(t *testing.T) {
	rec := widgetType.New(nil)
	_, err := rec.ValuesFor(record.Verb("launch"))
	assert.ErrorIs(t, err, record.ErrUnknownVerb)
}
