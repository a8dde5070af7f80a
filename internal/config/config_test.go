package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/uniserved/chatwidget/internal/model/access"
	"github.com/uniserved/chatwidget/internal/model/chatbot"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "API_BASE_URL", "ANSWER_TIMEOUT", "ANSWER_EXTRA_HEADERS", "GREETING_DELAY", "GREETING_ENABLED", "TIMEZONE", "ASK_RATE_LIMIT", "ASK_RATE_BURST", "DIRECTORY_FILE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, chatbot.DefaultBaseURL, cfg.Answer.BaseURL)
	require.Equal(t, 30*time.Second, cfg.Answer.Timeout)
	require.Empty(t, cfg.Answer.Headers)
	require.True(t, cfg.Session.GreetingEnabled)
	require.Equal(t, 2*time.Second, cfg.Session.GreetingDelay)
	require.Equal(t, "Asia/Kolkata", cfg.Session.Location.String())
	require.Equal(t, 1.0, cfg.Ask.RateLimit)
	require.Equal(t, 5, cfg.Ask.RateBurst)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("ANSWER_TIMEOUT", "5s")
	t.Setenv("ANSWER_EXTRA_HEADERS", "ngrok-skip-browser-warning=true, X-Tenant = uniserved")
	t.Setenv("GREETING_DELAY", "500ms")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("ASK_RATE_BURST", "0")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	require.Equal(t, 5*time.Second, cfg.Answer.Timeout)
	require.Equal(t, map[string]string{"ngrok-skip-browser-warning": "true", "X-Tenant": "uniserved"}, cfg.Answer.Headers)
	require.Equal(t, 500*time.Millisecond, cfg.Session.GreetingDelay)
	require.Equal(t, 1, cfg.Ask.RateBurst)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":                 "80 80",
		"ANSWER_TIMEOUT":       "soon",
		"ANSWER_EXTRA_HEADERS": "novalue",
		"GREETING_ENABLED":     "maybe",
		"TIMEZONE":             "Mars/Olympus",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoadTablesDefaults(t *testing.T) {
	tables, err := LoadTables(TablesConfig{}, chatbot.DefaultBaseURL)
	require.NoError(t, err)
	require.Len(t, tables.Chatbots, 6)
	require.Equal(t, access.Seed(), tables.AccessCodes)
}

func TestLoadTablesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	content := `baseUrl: http://localhost:9000/api/ask/
chatbots:
  - id: alpha
    name: Alpha
    uuid: "1111"
    description: first
  - id: beta
    name: Beta
    endpoint: http://beta.internal/ask
accessCodes:
  "+91 12345": SECRET
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	tables, err := LoadTables(TablesConfig{File: path}, chatbot.DefaultBaseURL)
	require.NoError(t, err)
	require.Len(t, tables.Chatbots, 2)
	require.Equal(t, "http://localhost:9000/api/ask/?uuid=1111", tables.Chatbots[0].Endpoint)
	require.Equal(t, "http://beta.internal/ask", tables.Chatbots[1].Endpoint)

	gate := access.NewGate(tables.AccessCodes)
	require.True(t, gate.Verify("9112345", "secret"))
}

func TestLoadTablesRejectsMissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chatbots:\n  - name: nameless\n"), 0o600))

	_, err := LoadTables(TablesConfig{File: path}, "")
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	require.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	require.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}
