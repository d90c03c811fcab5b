// Package credential turns roster names into student identifiers and derives
// the portal password for each identifier.
package credential

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
)

// ErrMissingSecret is returned when no derivation secret is configured.
var ErrMissingSecret = errors.New("credential: password secret must be provided")

const passwordPrefix = "ac"

var (
	// "S022 - Tamara", "S022–Tamara", "S022 — Tamara"
	separatedIDPattern = regexp.MustCompile(`^([A-Za-z][0-9]{2,})[\s\p{Zs}]*[-\x{2013}\x{2014}][\s\p{Zs}]*`)
	// "S022", "S022 Tamara", "S022(Tamara)"
	leadingIDPattern = regexp.MustCompile(`^([A-Za-z][0-9]{2,})\b`)
)

// ExtractStudentID pulls the leading student identifier out of a free-text
// roster name. Anything that is not a string, or a string without a leading
// identifier, reports false.
func ExtractStudentID(raw any) (string, bool) {
	name, ok := raw.(string)
	if !ok {
		return "", false
	}

	if m := separatedIDPattern.FindStringSubmatch(name); m != nil {
		return m[1], true
	}
	if m := leadingIDPattern.FindStringSubmatch(name); m != nil {
		return m[1], true
	}
	return "", false
}

// ResolveStudentID prefers the identifier embedded in the roster name and
// falls back to the explicit StudentID column.
func ResolveStudentID(name any, fallback string) (string, bool) {
	if id, ok := ExtractStudentID(name); ok {
		return id, true
	}
	fallback = strings.TrimSpace(fallback)
	if fallback == "" {
		return "", false
	}
	return fallback, true
}

// Deriver computes deterministic passwords from student identifiers.
type Deriver struct {
	secret []byte
}

// NewDeriver returns a Deriver keyed by secret.
func NewDeriver(secret string) (*Deriver, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Deriver{secret: []byte(secret)}, nil
}

// Derive returns the password for studentID in the form ac-XXXXX-YYYYYY.
func (d *Deriver) Derive(studentID string) string {
	mac := hmac.New(sha256.New, d.secret)
	mac.Write([]byte(strings.TrimSpace(studentID)))
	raw := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return passwordPrefix + "-" + raw[:5] + "-" + raw[5:11]
}

// String keeps the secret out of formatted output.
func (d *Deriver) String() string {
	return "credential.Deriver{secret:<redacted>}"
}
