// Package audit records CLI command invocations as structured log entries.
// Each entry carries the command name, the config file in effect and the
// operational environment, with secrets reduced to "set" or "unset" and
// connection strings stripped of their passwords.
package audit

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"strings"
)

// keyKind says how a key's value is rendered in an audit entry.
type keyKind int

const (
	// plain values are logged as-is.
	plain keyKind = iota
	// secret values are logged as presence only.
	secret
	// dsn values are logged with any password redacted.
	dsn
)

// auditEntry defines an env var to include in the audit log.
type auditEntry struct {
	// key is the environment variable name.
	key string
	// kind selects the redaction applied to the value.
	kind keyKind
}

// auditKeys is the ordered list of env vars included in every audit log entry.
var auditKeys = []auditEntry{
	{"EMBEDDING_PROVIDER", plain},
	{"EMBEDDING_MODEL", plain},
	{"EMBEDDING_DIMENSIONS", plain},
	{"EMBEDDING_ENDPOINT", plain},
	{"EMBEDDING_API_KEY", secret},
	{"OPENAI_API_KEY", secret},
	{"AZURE_OPENAI_API_KEY", secret},
	{"AZURE_OPENAI_ENDPOINT", plain},
	{"OLLAMA_HOST", plain},
	{"STORE_DRIVER", plain},
	{"POSTGRES_URL", dsn},
	{"SQLITE_PATH", plain},
	{"VECTOR_BACKEND", plain},
	{"QDRANT_HOST", plain},
	{"QDRANT_PORT", plain},
	{"QDRANT_COLLECTION", plain},
	{"QDRANT_API_KEY", secret},
	{"SOURCE_KIND", plain},
	{"PARSER_BASE_URL", plain},
	{"CHUNK_SIZE", plain},
	{"CHUNK_OVERLAP", plain},
	{"LOG_LEVEL", plain},
	{"LOG_FORMAT", plain},
}

// kinds indexes auditKeys by name.
var kinds = func() map[string]keyKind {
	m := make(map[string]keyKind, len(auditKeys))
	for _, e := range auditKeys {
		m[e.key] = e.kind
	}
	return m
}()

// LogCommandStart emits a structured audit log entry when a CLI command begins.
func LogCommandStart(ctx context.Context, log *slog.Logger, command, configPath string) {
	attrs := []slog.Attr{
		slog.String("command", command),
		slog.String("config_file", sanitiseConfigPath(configPath)),
	}
	for _, entry := range auditKeys {
		attrs = append(attrs, slog.String(entry.key, SanitiseKey(entry.key, os.Getenv(entry.key))))
	}
	log.LogAttrs(ctx, slog.LevelInfo, "audit: command start", attrs...)
}

// SanitiseKey returns the loggable form of value for key: presence only for
// secrets, a password-free URL for connection strings, and the value itself
// otherwise. Unknown keys are treated as plain.
func SanitiseKey(key, value string) string {
	if value == "" {
		return "unset"
	}
	switch kinds[key] {
	case secret:
		return "set"
	case dsn:
		return redactDSN(value)
	default:
		return value
	}
}

// redactDSN masks the password of a URL-style connection string. Values
// that do not parse as URLs are reduced to presence.
func redactDSN(v string) string {
	u, err := url.Parse(v)
	if err != nil || u.Scheme == "" {
		return "set"
	}
	return u.Redacted()
}

// sanitiseConfigPath returns the config path or "none" if empty, with the
// home directory shortened to "~".
func sanitiseConfigPath(p string) string {
	if p == "" {
		return "none"
	}
	home, err := os.UserHomeDir()
	if err == nil && strings.HasPrefix(p, home) {
		return "~" + p[len(home):]
	}
	return p
}
