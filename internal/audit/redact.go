package audit

import "strings"

// defaultSensitiveKeys are ChangeDetails keys redacted before a record is
// hashed, so the hash chain never needs to carry (or later leak) a secret
// value, yet stays verifiable since redaction happens deterministically
// before computeHash sees the record.
var defaultSensitiveKeys = map[string]struct{}{
	"password":       {},
	"token":          {},
	"secret":         {},
	"credential":     {},
	"api_key":        {},
	"access_token":   {},
	"refresh_token":  {},
	"private_key":    {},
	"encryption_key": {},
}

const redactedPlaceholder = "[REDACTED]"

// Redactor scrubs sensitive values out of ChangeDetails maps before they
// are persisted or hashed.
type Redactor struct {
	keys map[string]struct{}
}

// NewRedactor returns a Redactor seeded with the default sensitive key set
// plus any caller-supplied additions.
func NewRedactor(extra ...string) *Redactor {
	keys := make(map[string]struct{}, len(defaultSensitiveKeys)+len(extra))
	for k := range defaultSensitiveKeys {
		keys[k] = struct{}{}
	}
	for _, k := range extra {
		keys[strings.ToLower(k)] = struct{}{}
	}
	return &Redactor{keys: keys}
}

// Redact returns a copy of details with every sensitive-looking key's value
// replaced by a fixed placeholder. It never mutates its input.
func (r *Redactor) Redact(details map[string]string) map[string]string {
	if len(details) == 0 {
		return details
	}
	out := make(map[string]string, len(details))
	for k, v := range details {
		if r.isSensitive(k) {
			out[k] = redactedPlaceholder
		} else {
			out[k] = v
		}
	}
	return out
}

func (r *Redactor) isSensitive(key string) bool {
	lower := strings.ToLower(key)
	if _, ok := r.keys[lower]; ok {
		return true
	}
	for suffix := range map[string]struct{}{"_key": {}, "_token": {}, "_secret": {}, "_password": {}, "_credential": {}} {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
