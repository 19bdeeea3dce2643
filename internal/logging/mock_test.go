package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLogger_RecordsEntries(t *testing.T) {
	m := &MockLogger{}

	m.Info("Validated account sheet", Field{Key: FieldSheet, Value: "Cash (10010)"})
	m.Warn("Carry-forward value cell empty", Field{Key: FieldCell, Value: "G5"})

	require.Len(t, m.Entries, 2)
	assert.Equal(t, "INFO", m.Entries[0].Level)
	assert.Equal(t, "Validated account sheet", m.Entries[0].Message)
	require.Len(t, m.Entries[0].Fields, 1)
	assert.Equal(t, FieldSheet, m.Entries[0].Fields[0].Key)

	assert.True(t, m.HasEntry("WARN", "Carry-forward value cell empty"))
	assert.False(t, m.HasEntry("ERROR", "Carry-forward value cell empty"))
}

func TestMockLogger_DerivedContext(t *testing.T) {
	m := &MockLogger{}
	scoped := m.WithField("component", "UncertaintyMarker").WithError(errors.New("cell out of range"))

	scoped.Error("Could not quarantine header cell", Field{Key: FieldCell, Value: "E1"})

	derived, ok := scoped.(*MockLogger)
	require.True(t, ok)
	require.Len(t, derived.Entries, 1)
	entry := derived.Entries[0]
	assert.EqualError(t, entry.Error, "cell out of range")
	require.Len(t, entry.Fields, 2)
	assert.Equal(t, "component", entry.Fields[0].Key)
	assert.Equal(t, FieldCell, entry.Fields[1].Key)
}

func TestMockLogger_FatalDoesNotExit(t *testing.T) {
	m := &MockLogger{}

	m.Fatal("unreachable gateway")
	m.Fatalf("task %s gave up", "analyze_patterns-10010-001")

	require.Len(t, m.Entries, 2)
	assert.Equal(t, "FATAL", m.Entries[0].Level)
	assert.Equal(t, "task analyze_patterns-10010-001 gave up", m.Entries[1].Message)
}

func TestMockLogger_Reset(t *testing.T) {
	m := &MockLogger{}
	m.Debug("one")
	m.Reset()
	assert.Empty(t, m.Entries)
}
