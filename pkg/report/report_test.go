package report

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordsInOrder(t *testing.T) {
	c := NewCollector()

	require.NoError(t, c.Record("TestDockerDaemonRunning", true, CategoryFunctional))
	require.NoError(t, c.Record("TestImageExists", false, CategoryFunctional))
	require.NoError(t, c.Record("TestContainerExists", true, CategoryFunctional))

	records := c.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "TestDockerDaemonRunning", records[0].Name)
	assert.Equal(t, "TestImageExists", records[1].Name)
	assert.False(t, records[1].Passed)
	assert.Equal(t, CategoryFunctional, records[2].Category)
	assert.False(t, records[2].Time.IsZero())

	passed, failed := c.Counts()
	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, failed)
	assert.False(t, c.Passed())
}

func TestCollector_RejectsDuplicateName(t *testing.T) {
	c := NewCollector()
	require.NoError(t, c.Record("TestImageExists", true, CategoryFunctional))

	err := c.Record("TestImageExists", false, CategoryFunctional)

	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.Len(t, c.Records(), 1)
	assert.True(t, c.Passed())
}

func TestCollector_EmptyIsNotPassed(t *testing.T) {
	assert.False(t, NewCollector().Passed())
}

func TestCollector_RunID(t *testing.T) {
	a, b := NewCollector(), NewCollector()

	_, err := uuid.Parse(a.RunID())
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID(), b.RunID())
}
