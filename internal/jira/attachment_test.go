package jira

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputPath(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "downloads"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(base, "existing-dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "existing.txt"), []byte("old"), 0o644))

	testCases := []struct {
		name    string
		output  string
		wantErr bool
	}{
		{name: "Plain file", output: "report.txt"},
		{name: "Nested existing dir", output: "downloads/report.txt"},
		{name: "Overwrite regular file", output: "existing.txt"},
		{name: "Absolute inside", output: filepath.Join(base, "abs.txt")},
		{name: "Dot dot escape", output: "../escape.txt", wantErr: true},
		{name: "Sneaky escape", output: "downloads/../../escape.txt", wantErr: true},
		{name: "Absolute outside", output: filepath.Join(filepath.Dir(base), "outside.txt"), wantErr: true},
		{name: "Prefix sibling", output: base + "-sibling/x.txt", wantErr: true},
		{name: "Missing parent", output: "nope/report.txt", wantErr: true},
		{name: "Existing directory", output: "existing-dir", wantErr: true},
		{name: "Base itself", output: ".", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateOutputPath(base, tc.output)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOutput)
				return
			}
			require.NoError(t, err)
			assert.True(t, filepath.IsAbs(got))
		})
	}
}

func TestIsAccountID(t *testing.T) {
	testCases := []struct {
		value string
		want  bool
	}{
		{value: "5b10ac8d:82e05b22cc7d4ef5", want: true},
		{value: "557058:d5765ebc-27de-4ce3-b520-a77a87e5e99a", want: true},
		{value: "5b10ac8d82e05b22cc7d4ef5", want: true},
		{value: "ab10ac8d82e05b22cc7d4ef5", want: true},
		{value: "user@example.com", want: false},
		{value: "john.doe", want: false},
		{value: "", want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			assert.Equal(t, tc.want, IsAccountID(tc.value))
		})
	}
}

func TestAssigneeField(t *testing.T) {
	assert.Equal(t, map[string]any{"accountId": "5b10ac8d82e05b22cc7d4ef5"}, AssigneeField("5b10ac8d82e05b22cc7d4ef5"))
	assert.Equal(t, map[string]any{"name": "john.doe"}, AssigneeField("john.doe"))
	assert.Nil(t, AssigneeField("none"))
}
