package state

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCounters(t *testing.T) {
	r := NewRun()
	r.Reset(3)

	r.RecordSuccess("Maria_Souza")
	r.RecordSuccess("John_Smith")
	r.RecordFailure("Jane_Roe")
	r.Finish()

	snap := r.Snapshot()
	assert.False(t, snap.Running)
	assert.Equal(t, 2, snap.Downloaded)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, "Jane_Roe", snap.LastCandidateName)
}

func TestResetClearsPreviousRun(t *testing.T) {
	r := NewRun()
	r.Reset(2)
	r.RecordSuccess("a")
	r.AppendLog("old line")

	r.Reset(5)
	snap := r.Snapshot()
	assert.True(t, snap.Running)
	assert.Zero(t, snap.Downloaded)
	assert.Zero(t, snap.Failed)
	assert.Equal(t, 5, snap.Total)
	assert.Empty(t, snap.LogLines)
}

func TestLogRingBounded(t *testing.T) {
	r := NewRun()
	r.Reset(0)
	for i := 0; i < LogCapacity+17; i++ {
		r.AppendLog(fmt.Sprintf("line %d", i))
	}

	snap := r.Snapshot()
	require.Len(t, snap.LogLines, LogCapacity)
	assert.Equal(t, "line 17", snap.LogLines[0], "oldest retained line")
	assert.Equal(t, fmt.Sprintf("line %d", LogCapacity+16), snap.LogLines[LogCapacity-1])
}

func TestLogRingPartialFill(t *testing.T) {
	r := NewRun()
	r.AppendLog("one")
	r.AppendLog("two")

	snap := r.Snapshot()
	require.Equal(t, []string{"one", "two"}, snap.LogLines)
}
