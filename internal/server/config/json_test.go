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

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_OverlaysValues(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"endpoint_addr_http":              ":9000",
		"database_dsn":                    "postgres://identity",
		"secret_key":                      "my_secret_key",
		"session_token_validity_duration": "12h",
		"verification_token_ttl":          "30m",
		"reset_token_ttl":                 "45m",
		"smtp_host":                       "mail.example.com",
		"smtp_port":                       465,
		"smtp_user":                       "verification",
		"smtp_password":                   "pw",
		"reset_password_base_url":         "https://front/reset",
	})
	os.Args = []string{"cmd", "-c", path}

	var c Config
	c.LoadDefaults()
	parseJson(&c)

	assert.Equal(t, ":9000", c.EndpointAddrHTTP)
	assert.Equal(t, "postgres://identity", c.DatabaseDSN)
	assert.Equal(t, "my_secret_key", c.SecretKey)
	assert.Equal(t, 12*time.Hour, c.SessionTokenValidityDuration)
	assert.Equal(t, 30*time.Minute, c.VerificationTokenTTL)
	assert.Equal(t, 45*time.Minute, c.ResetTokenTTL)
	assert.Equal(t, "mail.example.com", c.SMTPHost)
	assert.Equal(t, 465, c.SMTPPort)
	assert.Equal(t, "https://front/reset", c.ResetPasswordBaseURL)
}

func Test_parseJson_NoFlagLeavesConfigUntouched(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cmd"}

	var c Config
	c.LoadDefaults()
	before := c
	parseJson(&c)

	assert.Equal(t, before, c)
}
