package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
database: other
setup:
  - document: rooms/lobby
    fields:
      visits: 1
flow:
  - op: update
    document: rooms/lobby
    data:
      visits: {$increment: 1}
    expect:
      transforms: 1
assertions:
  - type: pending
    document: rooms/lobby
    pending: true
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, "other", scenario.Database)
	require.Len(t, scenario.Setup, 1)
	assert.Equal(t, 1, scenario.Setup[0].Fields["visits"])
	require.Len(t, scenario.Flow, 1)
	assert.Equal(t, OpUpdate, scenario.Flow[0].Op)
	require.NotNil(t, scenario.Flow[0].Expect)
	require.NotNil(t, scenario.Flow[0].Expect.Transforms)
	assert.Equal(t, 1, *scenario.Flow[0].Expect.Transforms)
	require.Len(t, scenario.Assertions, 1)
	require.NotNil(t, scenario.Assertions[0].Pending)
	assert.True(t, *scenario.Assertions[0].Pending)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Testdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadScenario(path)
			require.NoError(t, err)
		})
	}
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "unknown field",
			content: `
name: test
description: "Test"
flow:
  - op: delete
    document: rooms/lobby
assertion:
  - type: missing
    document: rooms/lobby
`,
			wantErr: "failed to parse YAML",
		},
		{
			name: "missing name",
			content: `
description: "Test"
flow:
  - op: delete
    document: rooms/lobby
assertions:
  - type: missing
    document: rooms/lobby
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: test
flow:
  - op: delete
    document: rooms/lobby
assertions:
  - type: missing
    document: rooms/lobby
`,
			wantErr: "description is required",
		},
		{
			name: "empty flow",
			content: `
name: test
description: "Test"
flow: []
assertions:
  - type: missing
    document: rooms/lobby
`,
			wantErr: "flow list is required",
		},
		{
			name: "missing assertions",
			content: `
name: test
description: "Test"
flow:
  - op: delete
    document: rooms/lobby
`,
			wantErr: "assertions list is required",
		},
		{
			name: "setup without document",
			content: `
name: test
description: "Test"
setup:
  - fields: {a: 1}
flow:
  - op: delete
    document: rooms/lobby
assertions:
  - type: missing
    document: rooms/lobby
`,
			wantErr: "setup[0]: document is required",
		},
		{
			name: "unknown op",
			content: `
name: test
description: "Test"
flow:
  - op: upsert
    document: rooms/lobby
    data: {}
assertions:
  - type: missing
    document: rooms/lobby
`,
			wantErr: `flow[0]: unknown op "upsert"`,
		},
		{
			name: "set without data",
			content: `
name: test
description: "Test"
flow:
  - op: set
    document: rooms/lobby
assertions:
  - type: missing
    document: rooms/lobby
`,
			wantErr: "flow[0]: data is required for set",
		},
		{
			name: "unknown error code",
			content: `
name: test
description: "Test"
flow:
  - op: delete
    document: rooms/lobby
    expect:
      error: ABORTED
assertions:
  - type: missing
    document: rooms/lobby
`,
			wantErr: `unknown error code "ABORTED"`,
		},
		{
			name: "unknown assertion type",
			content: `
name: test
description: "Test"
flow:
  - op: delete
    document: rooms/lobby
assertions:
  - type: eventually
`,
			wantErr: `unknown assertion type "eventually"`,
		},
		{
			name: "document assertion without expectations",
			content: `
name: test
description: "Test"
flow:
  - op: delete
    document: rooms/lobby
assertions:
  - type: document
    document: rooms/lobby
`,
			wantErr: "expect or absent is required",
		},
		{
			name: "bad server timestamp behavior",
			content: `
name: test
description: "Test"
flow:
  - op: delete
    document: rooms/lobby
assertions:
  - type: document
    document: rooms/lobby
    server_timestamps: latest
    absent: [a]
`,
			wantErr: "assertions[0]",
		},
		{
			name: "pending without flag",
			content: `
name: test
description: "Test"
flow:
  - op: delete
    document: rooms/lobby
assertions:
  - type: pending
    document: rooms/lobby
`,
			wantErr: "pending is required",
		},
		{
			name: "op_count without op",
			content: `
name: test
description: "Test"
flow:
  - op: delete
    document: rooms/lobby
assertions:
  - type: op_count
    count: 1
`,
			wantErr: "op is required for op_count",
		},
		{
			name: "trace_order without ops",
			content: `
name: test
description: "Test"
flow:
  - op: delete
    document: rooms/lobby
assertions:
  - type: trace_order
`,
			wantErr: "ops list is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
