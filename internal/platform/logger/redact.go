package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/yungbote/creator-onboarding-backend/internal/platform/envutil"
)

const redacted = "[REDACTED]"

var (
	// Substrings of keys whose values never reach the log sink.
	secretKeyParts = []string{"token", "authorization", "password", "secret", "cookie", "api_key", "apikey", "email", "refresh"}
	// Creator free text (motivation statements, referral notes, training preferences).
	freeTextKeyParts = []string{"motivation", "referral", "preferences"}
	// Identity keys logged as a salted, truncated hash so lines can still be correlated.
	identityKeyParts = []string{"user_id", "creator_id", "session_id"}
)

type redactor struct {
	enabled bool
	salt    string
}

var (
	envRedactorOnce sync.Once
	envRedactor     *redactor
)

// redactorFromEnv reads LOG_REDACTION_ENABLED (default on) and LOG_HASH_SALT once per process.
func redactorFromEnv() *redactor {
	envRedactorOnce.Do(func() {
		envRedactor = &redactor{
			enabled: envutil.Bool("LOG_REDACTION_ENABLED", true),
			salt:    envutil.String("LOG_HASH_SALT", ""),
		}
	})
	return envRedactor
}

func (r *redactor) kvs(kv []interface{}) []interface{} {
	if r == nil || !r.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		key := stringify(kv[i])
		out = append(out, key, r.value(normalizeKey(key), kv[i+1]))
	}
	if len(kv)%2 == 1 {
		out = append(out, kv[len(kv)-1])
	}
	return out
}

func (r *redactor) value(key string, val interface{}) interface{} {
	switch {
	case key != "" && (containsAny(key, secretKeyParts) || containsAny(key, freeTextKeyParts)):
		return redacted
	case key != "" && containsAny(key, identityKeyParts):
		return r.hash(val)
	}
	switch v := val.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = r.value(normalizeKey(k), inner)
		}
		return out
	case map[string]string:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = r.value(normalizeKey(k), inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, inner := range v {
			out[i] = r.value("", inner)
		}
		return out
	case string:
		if looksLikeJWT(v) {
			return redacted
		}
	}
	return val
}

func (r *redactor) hash(val interface{}) string {
	raw := stringify(val)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(r.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func containsAny(key string, parts []string) bool {
	for _, p := range parts {
		if strings.Contains(key, p) {
			return true
		}
	}
	return false
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
