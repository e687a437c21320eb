package printing

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Fingerprint identifies what to render, independent of render options.
type Fingerprint string

// String returns the hex form
func (f Fingerprint) String() string { return string(f) }

// ContentIdentity is either a URL or raw HTML. Exactly one is set.
type ContentIdentity struct {
	URL  string
	HTML string
}

// NewContentIdentity resolves the submitted fields. Exactly one of them
// must be set.
func NewContentIdentity(rawURL, html string) (ContentIdentity, error) {
	if rawURL != "" && html != "" {
		return ContentIdentity{}, &InputError{Reason: "url and content are mutually exclusive"}
	}
	if rawURL != "" {
		if !isHTTPURL(rawURL) {
			return ContentIdentity{}, &InputError{Reason: "url must be an absolute http or https URL"}
		}
		return ContentIdentity{URL: rawURL}, nil
	}
	if html != "" {
		return ContentIdentity{HTML: html}, nil
	}
	return ContentIdentity{}, &InputError{Reason: "URL ou contenu manquant"}
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// IsURL reports whether the identity points at a remote page.
func (c ContentIdentity) IsURL() bool {
	return c.URL != ""
}

// Value returns the URL or the HTML, whichever is set.
func (c ContentIdentity) Value() string {
	if c.IsURL() {
		return c.URL
	}
	return c.HTML
}

// Fingerprint hashes the raw submitted value.
func (c ContentIdentity) Fingerprint() Fingerprint {
	sum := sha256.Sum256([]byte(c.Value()))
	return Fingerprint(hex.EncodeToString(sum[:]))
}
