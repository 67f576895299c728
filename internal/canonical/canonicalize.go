// Package canonical turns arbitrary bookmark URLs into the stable key used to
// deduplicate links across every user.
//
// A key has the shape https://{domain}{path}{?query}: scheme forced to https,
// host lowercased without the www label, default ports and fragment dropped,
// trailing slashes removed from non-root paths, tracking and empty query
// parameters removed and the rest sorted by key.
//
//	res, err := canonical.CanonicalizeURL("http://www.Example.com/a/?utm_source=x&b=2&a=1")
//	// res.URLKey == "https://example.com/a?a=1&b=2"
package canonical

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// ErrInvalidURL is returned when the input cannot be read as a URL with a host.
	ErrInvalidURL = errors.New("invalid url")
	// ErrUnsupportedScheme is returned for explicit non-web schemes (ftp://, chrome://, ...).
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
)

const canonicalScheme = "https"

var (
	schemePrefix = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.\-]*)://`)
	// mailto:, javascript:, about:blank. A digit after the colon is a port instead.
	opaqueScheme = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.\-]*):([^0-9/]|$)`)
)

// nonWebSchemes are rejected even when the rest reads as userinfo, as in
// mailto:someone@example.com.
var nonWebSchemes = map[string]bool{
	"about": true, "blob": true, "chrome": true, "data": true, "file": true,
	"javascript": true, "magnet": true, "mailto": true, "news": true, "place": true,
	"sms": true, "tel": true, "urn": true, "view-source": true,
}

// Result is the outcome of canonicalizing one URL.
type Result struct {
	URLKey      string `json:"url_key"`
	OriginalURL string `json:"original_url"`
	Domain      string `json:"domain"`
	Protocol    string `json:"protocol"`
	Pathname    string `json:"pathname"`
}

// Canonicalizer holds the tracking parameter list. It is safe for concurrent use.
type Canonicalizer struct {
	tracking trackingMatcher
}

// New creates a Canonicalizer with DefaultTrackingParams plus any extra patterns.
func New(extraTrackingParams ...string) *Canonicalizer {
	patterns := make([]string, 0, len(DefaultTrackingParams)+len(extraTrackingParams))
	patterns = append(patterns, DefaultTrackingParams...)
	patterns = append(patterns, extraTrackingParams...)
	return &Canonicalizer{tracking: newTrackingMatcher(patterns)}
}

var defaultCanonicalizer = New()

// Default returns the Canonicalizer used by the package-level functions.
func Default() *Canonicalizer {
	return defaultCanonicalizer
}

// CanonicalizeURL canonicalizes rawURL with the default tracking list.
func CanonicalizeURL(rawURL string) (Result, error) {
	return defaultCanonicalizer.Canonicalize(rawURL)
}

// ExtractDomain returns the canonical domain of rawURL, or "" if it cannot be parsed.
func ExtractDomain(rawURL string) string {
	return defaultCanonicalizer.ExtractDomain(rawURL)
}

// URLsAreEquivalent reports whether both URLs produce the same key.
// A parse failure on either side means not equivalent.
func URLsAreEquivalent(a, b string) bool {
	return defaultCanonicalizer.Equivalent(a, b)
}

// Canonicalize computes the Result for rawURL. It fails only when the input
// has a non-web scheme or no usable host after https:// is assumed.
func (c *Canonicalizer) Canonicalize(rawURL string) (Result, error) {
	original, err := withDefaultScheme(rawURL)
	if err != nil {
		return Result{}, err
	}

	u, err := url.Parse(original)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	host, err := canonicalHost(u)
	if err != nil {
		return Result{}, err
	}

	path := canonicalPath(u)
	query := c.canonicalQuery(u.RawQuery)

	key := canonicalScheme + "://" + host + path
	if query != "" {
		key += "?" + query
	}

	return Result{
		URLKey:      key,
		OriginalURL: original,
		Domain:      host,
		Protocol:    canonicalScheme,
		Pathname:    path,
	}, nil
}

// ExtractDomain returns the canonical domain of rawURL, or "" on failure.
func (c *Canonicalizer) ExtractDomain(rawURL string) string {
	res, err := c.Canonicalize(rawURL)
	if err != nil {
		return ""
	}
	return res.Domain
}

// Equivalent reports whether a and b share a key.
func (c *Canonicalizer) Equivalent(a, b string) bool {
	ra, err := c.Canonicalize(a)
	if err != nil {
		return false
	}
	rb, err := c.Canonicalize(b)
	if err != nil {
		return false
	}
	return ra.URLKey == rb.URLKey
}

func withDefaultScheme(rawURL string) (string, error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	if m := schemePrefix.FindStringSubmatch(s); m != nil {
		switch strings.ToLower(m[1]) {
		case "http", "https":
			return s, nil
		default:
			return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, m[1])
		}
	}

	if m := opaqueScheme.FindStringSubmatch(s); m != nil {
		// user:pass@host reads as a scheme until the default one is added.
		if nonWebSchemes[strings.ToLower(m[1])] || !hasUserinfo(s) {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, m[1])
		}
	}

	if strings.HasPrefix(s, "//") {
		return canonicalScheme + ":" + s, nil
	}
	return canonicalScheme + "://" + s, nil
}

// hasUserinfo reports whether an '@' comes before the path, query or fragment.
func hasUserinfo(s string) bool {
	end := strings.IndexAny(s, "/?#")
	if end < 0 {
		end = len(s)
	}
	return strings.Contains(s[:end], "@")
}

func canonicalHost(u *url.URL) (string, error) {
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if strings.ContainsAny(host, " \t\r\n/\\") {
		return "", fmt.Errorf("%w: malformed host %q", ErrInvalidURL, host)
	}

	// Repeated www labels collapse so that a key canonicalizes to itself.
	// A bare "www.tld" is left alone.
	for strings.HasPrefix(host, "www.") && strings.Contains(host[len("www."):], ".") {
		host = host[len("www."):]
	}

	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	switch port := u.Port(); port {
	case "", "80", "443":
	default:
		host += ":" + port
	}
	return host, nil
}

func canonicalPath(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		return "/"
	}
	// All trailing slashes go, otherwise "/a//" would need two passes.
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}

// canonicalQuery parses the raw query leniently: malformed escapes are kept
// verbatim rather than rejecting the whole URL.
func (c *Canonicalizer) canonicalQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	values := url.Values{}
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key := unescapeQueryPart(rawKey)
		value := unescapeQueryPart(rawValue)

		if key == "" || value == "" {
			continue
		}
		if c.tracking.matches(key) {
			continue
		}
		values.Add(key, value)
	}

	// Encode sorts by key and keeps the original order of repeated keys.
	return values.Encode()
}

func unescapeQueryPart(s string) string {
	if unescaped, err := url.QueryUnescape(s); err == nil {
		return unescaped
	}
	return s
}
