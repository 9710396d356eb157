package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "client.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestParseJson(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"request_timeout": `), 0o600))

	base := Config{ServerEndpointAddr: "127.0.0.1:50051", RequestTimeout: 5 * time.Second}

	tests := []struct {
		name    string
		args    []string
		want    Config
		wantErr string
	}{
		{
			name: "no file",
			want: base,
		},
		{
			name: "full file",
			args: []string{"-c", writeTempJSON(t, dir, "full.json", map[string]any{
				"server_endpoint_addr": "auth.internal:443",
				"request_timeout":      "30s",
			})},
			want: Config{ServerEndpointAddr: "auth.internal:443", RequestTimeout: 30 * time.Second},
		},
		{
			name: "nanosecond timeout, address kept",
			args: []string{"-config", writeTempJSON(t, dir, "partial.json", map[string]any{
				"request_timeout": int64(2 * time.Second),
			})},
			want: Config{ServerEndpointAddr: "127.0.0.1:50051", RequestTimeout: 2 * time.Second},
		},
		{
			name:    "malformed",
			args:    []string{"-c", bad},
			wantErr: "parse config file",
		},
		{
			name:    "missing",
			args:    []string{"-c", filepath.Join(dir, "absent.json")},
			wantErr: "read config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withArgs(t, tt.args...)

			cfg := base
			err := parseJson(&cfg)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}
