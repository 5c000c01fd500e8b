package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lobbyScenario caches rooms/lobby and stamps it with a pending server
// timestamp, then runs the given assertions.
func lobbyScenario(assertions ...Assertion) *Scenario {
	return &Scenario{
		Name:        "lobby",
		Description: "Assertion fixture",
		Setup: []SetupStep{
			{Document: "rooms/lobby", Fields: map[string]any{
				"title":  "Lobby",
				"visits": 2,
				"meta":   map[string]any{"floor": 3},
				"at":     map[string]any{"$timestamp": "2023-06-01T00:00:00Z"},
			}},
		},
		Flow: []FlowStep{
			{Op: OpUpdate, Document: "rooms/lobby", Data: map[string]any{
				"at": map[string]any{"$serverTimestamp": true},
			}},
		},
		Assertions: assertions,
	}
}

func TestAssertions_Pass(t *testing.T) {
	result, err := Run(lobbyScenario(
		Assertion{Type: AssertDocument, Document: "rooms/lobby", Expect: map[string]any{
			"title":  "Lobby",
			"visits": 2.0,
			"meta":   map[string]any{"floor": 3},
			"at":     nil,
		}},
		Assertion{Type: AssertDocument, Document: "rooms/lobby", ServerTimestamps: "estimate", Expect: map[string]any{
			"at": map[string]any{"$timestamp": "2024-01-01T00:00:00Z"},
		}},
		Assertion{Type: AssertDocument, Document: "rooms/lobby", ServerTimestamps: "previous", Expect: map[string]any{
			"at": map[string]any{"$timestamp": "2023-06-01T00:00:00Z"},
		}},
		Assertion{Type: AssertDocument, Document: "rooms/lobby", Absent: []string{"missing", "meta.room"}},
		Assertion{Type: AssertPending, Document: "rooms/lobby", Pending: boolPtr(true)},
		Assertion{Type: AssertMissing, Document: "rooms/hall"},
		Assertion{Type: AssertOpCount, Op: OpPut, Count: 1},
		Assertion{Type: AssertOpCount, Op: OpDelete, Count: 0},
		Assertion{Type: AssertTraceOrder, Ops: []string{OpPut, OpUpdate}},
	))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestAssertions_Fail(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{
			name:      "document not cached",
			assertion: Assertion{Type: AssertDocument, Document: "rooms/hall", Expect: map[string]any{"a": 1}},
			wantErr:   "document not cached",
		},
		{
			name:      "field missing",
			assertion: Assertion{Type: AssertDocument, Document: "rooms/lobby", Expect: map[string]any{"name": "x"}},
			wantErr:   `field "name" to exist`,
		},
		{
			name:      "field differs",
			assertion: Assertion{Type: AssertDocument, Document: "rooms/lobby", Expect: map[string]any{"visits": 3}},
			wantErr:   `field "visits" = 2`,
		},
		{
			name:      "field present",
			assertion: Assertion{Type: AssertDocument, Document: "rooms/lobby", Absent: []string{"meta.floor"}},
			wantErr:   `field "meta.floor" to be absent`,
		},
		{
			name:      "pending differs",
			assertion: Assertion{Type: AssertPending, Document: "rooms/lobby", Pending: boolPtr(false)},
			wantErr:   "pending=true",
		},
		{
			name:      "pending on missing document",
			assertion: Assertion{Type: AssertPending, Document: "rooms/hall", Pending: boolPtr(false)},
			wantErr:   "document not cached",
		},
		{
			name:      "document exists",
			assertion: Assertion{Type: AssertMissing, Document: "rooms/lobby"},
			wantErr:   "document exists at revision rev-2",
		},
		{
			name:      "op count",
			assertion: Assertion{Type: AssertOpCount, Op: OpUpdate, Count: 2},
			wantErr:   "1 occurrences",
		},
		{
			name:      "trace order",
			assertion: Assertion{Type: AssertTraceOrder, Ops: []string{OpUpdate, OpPut}},
			wantErr:   "then no put",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Run(lobbyScenario(tt.assertion))
			require.NoError(t, err)
			assert.False(t, result.Pass)
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], "assertions[0]")
			assert.Contains(t, result.Errors[0], tt.wantErr)
		})
	}
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertOpCount,
		Expected: "2 occurrences of set",
		Actual:   "1 occurrences",
		Trace: []TraceEvent{
			{Seq: 1, Op: OpSet, Document: "rooms/lobby"},
			{Seq: 2, Op: OpUpdate, Document: "rooms/ghost", Error: "NOT_FOUND"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: op_count")
	assert.Contains(t, msg, "Expected: 2 occurrences of set")
	assert.Contains(t, msg, "[1] set rooms/lobby\n")
	assert.Contains(t, msg, "[2] update rooms/ghost error=NOT_FOUND")
}
