package common

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantError bool
	}{
		{
			name: "absolute path passes through",
			path: "/data/housing_analytics.db",
		},
		{
			name: "relative path becomes absolute",
			path: "data/raw",
		},
		{
			name:      "traversal rejected",
			path:      "../../etc/passwd",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanPath(tt.path)

			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, filepath.IsAbs(got))
		})
	}
}

func TestCleanPathNormalizes(t *testing.T) {
	got, err := CleanPath("/data//./processed/")
	require.NoError(t, err)
	assert.Equal(t, "/data/processed", got)
}

func TestValidatePath(t *testing.T) {
	got, err := ValidatePath("/data/processed/latest.yaml", "/data/processed")
	require.NoError(t, err)
	assert.Equal(t, "/data/processed/latest.yaml", got)

	_, err = ValidatePath("/etc/passwd", "/data/processed")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "outside allowed directory")
}
