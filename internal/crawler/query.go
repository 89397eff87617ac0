package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/user/gh-search-crawler/internal/domain"
)

// EncodeQuery joins keywords with '+' as the search endpoint expects.
// Keywords are not escaped individually.
func EncodeQuery(keywords []string) string {
	return strings.Join(keywords, "+")
}

// SearchURL builds the search page URL for req under baseURL. The query is
// re-quoted so spaces and non-ASCII keywords still form a valid request line,
// while '+' and other reserved characters pass through unchanged.
func SearchURL(baseURL string, req domain.SearchRequest) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid search base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid search base url %q: scheme and host are required", baseURL)
	}

	u.Path += "/search"
	u.RawPath = ""
	u.RawQuery = "q=" + requote(EncodeQuery(req.Keywords)) + "&type=" + requote(string(req.Type))
	u.Fragment = ""
	return u.String(), nil
}

// requote percent-encodes every byte outside the unreserved and reserved URI
// sets. Existing %XX escapes are kept; a stray '%' becomes %25.
func requote(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b.WriteByte(c)
		case c != '%' && keepInQuery(c):
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func keepInQuery(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	// '#' is escaped so a keyword cannot cut the query short with a fragment.
	return strings.IndexByte("-._~!$&'()*+,/:;=?@[]", c) >= 0
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
