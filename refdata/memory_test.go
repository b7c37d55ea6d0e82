package refdata_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/effectkit/refdata"
)

func TestMemory_ExistsAndField(t *testing.T) {
	src := refdata.NewMemory()
	src.Put("staff", "staff-1", map[string]string{"name": "Dr. Reyes"})
	src.Put("patient", "patient-1", nil)
	ctx := context.Background()

	ok, err := src.Exists(ctx, "staff", "staff-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = src.Exists(ctx, "patient", "patient-1")
	require.NoError(t, err)
	assert.True(t, ok, "nil fields still registers existence")

	ok, err = src.Exists(ctx, "staff", "staff-2")
	require.NoError(t, err)
	assert.False(t, ok)

	name, found, err := src.Field(ctx, "staff", "staff-1", "name")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Dr. Reyes", name)

	_, found, err = src.Field(ctx, "staff", "staff-1", "phone")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = src.Field(ctx, "staff", "staff-2", "name")
	require.NoError(t, err)
	assert.False(t, found)
}
