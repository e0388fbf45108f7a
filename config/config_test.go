package config

import (
	"testing"

	v "github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestValidate(t *testing.T) {
	base := map[string]any{
		"app.log_level":    "info",
		"app.log_format":   "console",
		"host.port":        8080,
		"database.driver":  "sqlite",
		"database.dsn":     "file::memory:",
		"jwt.secret":       "secret",
		"jwt.ttl":          "24h",
		"auth.code_ttl":    "24h",
		"catalog.min_year": 1800,
		"api.page_size":    10,
	}

	cases := []struct {
		name     string
		override map[string]any
		wantErr  bool
	}{
		{"defaults", nil, false},
		{"bad log level", map[string]any{"app.log_level": "loud"}, true},
		{"bad driver", map[string]any{"database.driver": "mysql"}, true},
		{"zero port", map[string]any{"host.port": 0}, true},
		{"sub-second code ttl", map[string]any{"auth.code_ttl": "10ms"}, true},
		{"future min year", map[string]any{"catalog.min_year": 9999}, true},
		{"mail without host", map[string]any{"mail.enabled": true}, true},
		{"turnstile without secret", map[string]any{"cloudflare.turnstile.enabled": true}, true},
		{"postgres", map[string]any{"database.driver": "postgres", "database.dsn": "host=db"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v.Reset()
			t.Cleanup(v.Reset)

			for k, val := range base {
				v.Set(k, val)
			}
			for k, val := range tc.override {
				v.Set(k, val)
			}

			err := validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMakeLogger(t *testing.T) {
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	require.NoError(t, MakeLogger("debug", "json"))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, MakeLogger("warn", "console"))
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))

	assert.Error(t, MakeLogger("loud", "console"))
}
