package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetAndGet(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{name: "bool false", key: "installation.backup_enabled", value: "false", want: "false"},
		{name: "bool numeric", key: "installation.verify_checksums", value: "0", want: "false"},
		{name: "url trimmed", key: "mirror.index_url", value: "  https://m.example.com/index.json ", want: "https://m.example.com/index.json"},
		{name: "file url", key: "mirror.download_base_url", value: "file:///srv/mirror/releases", want: "file:///srv/mirror/releases"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Set(Default(), tt.key, tt.value)
			require.NoError(t, err)
			got, err := Get(cfg, tt.key)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSetDoesNotMutateInput(t *testing.T) {
	base := Default()
	_, err := Set(base, "installation.backup_enabled", "false")
	require.NoError(t, err)
	require.True(t, base.Installation.BackupEnabled)
}

func TestSetErrors(t *testing.T) {
	_, err := Set(Default(), "mirror.nope", "x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "mirror.index_url")

	_, err = Set(Default(), "installation.backup_enabled", "maybe")
	require.Error(t, err)

	_, err = Set(Default(), "nightly.dist_server", "")
	require.Error(t, err)
}

func TestKeysSorted(t *testing.T) {
	keys := Keys()
	require.Len(t, keys, 6)
	require.IsIncreasing(t, keys)
}
