package audit

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestSanitiseKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key, value, want string
	}{
		{"OPENAI_API_KEY", "sk-abc123", "set"},
		{"QDRANT_API_KEY", "", "unset"},
		{"EMBEDDING_PROVIDER", "ollama", "ollama"},
		{"EMBEDDING_PROVIDER", "", "unset"},
		{"POSTGRES_URL", "postgres://leetcode:hunter2@db:5432/leetcode", "postgres://leetcode:xxxxx@db:5432/leetcode"},
		{"POSTGRES_URL", "host=db password=hunter2", "set"},
		{"SOME_OTHER_KEY", "visible", "visible"},
	}
	for _, tt := range tests {
		if got := SanitiseKey(tt.key, tt.value); got != tt.want {
			t.Errorf("SanitiseKey(%s, %q) = %q, want %q", tt.key, tt.value, got, tt.want)
		}
	}
}

func TestSanitiseConfigPath(t *testing.T) {
	t.Parallel()
	if got := sanitiseConfigPath(""); got != "none" {
		t.Errorf("expected 'none', got %q", got)
	}
	if got := sanitiseConfigPath("/tmp/config.yaml"); got != "/tmp/config.yaml" {
		t.Errorf("expected '/tmp/config.yaml', got %q", got)
	}
	home, err := os.UserHomeDir()
	if err == nil {
		p := home + "/.leetrag/config.yaml"
		if got := sanitiseConfigPath(p); got != "~/.leetrag/config.yaml" {
			t.Errorf("expected '~/.leetrag/config.yaml', got %q", got)
		}
	}
}

func TestLogCommandStart_RedactsSecrets(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-very-secret")
	t.Setenv("POSTGRES_URL", "postgres://u:hunter2@db/leetcode")
	t.Setenv("STORE_DRIVER", "postgres")

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	LogCommandStart(t.Context(), log, "load", "")

	out := buf.String()
	for _, leaked := range []string{"sk-very-secret", "hunter2"} {
		if strings.Contains(out, leaked) {
			t.Errorf("audit entry leaked %q: %s", leaked, out)
		}
	}
	for _, want := range []string{`"command":"load"`, `"OPENAI_API_KEY":"set"`, `"STORE_DRIVER":"postgres"`, `"config_file":"none"`} {
		if !strings.Contains(out, want) {
			t.Errorf("audit entry missing %s: %s", want, out)
		}
	}
}
