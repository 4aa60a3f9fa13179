// Package source fetches problem records from upstream services. Two
// fetchers are provided: the parser service (plain JSON over HTTP) and the
// LeetCode GraphQL API. Both report missing problems, subscriber-only
// problems and upstream failures as distinct domain errors.
package source

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/54b3r/leetrag/internal/domain"
)

// NormalizeSlug accepts a bare slug ("two-sum") or a problem URL
// ("https://leetcode.com/problems/two-sum/description/") and returns the
// slug. Slugs are lower-case letters, digits and hyphens.
//
// Supported URL patterns:
//
//	leetcode.com/problems/{slug}
//	leetcode.com/problems/{slug}/{tab}/...
//	leetcode.cn/problems/{slug}
func NormalizeSlug(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("source: %w: empty slug", domain.ErrInvalidInput)
	}

	if strings.Contains(s, "/") {
		if !strings.Contains(s, "://") {
			s = "https://" + s
		}
		parsed, err := url.Parse(s)
		if err != nil {
			return "", fmt.Errorf("source: %w: %q is not a valid URL", domain.ErrInvalidInput, raw)
		}
		host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
		if !strings.HasPrefix(host, "leetcode.") {
			return "", fmt.Errorf("source: %w: %q is not a LeetCode URL", domain.ErrInvalidInput, raw)
		}
		parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if len(parts) < 2 || parts[0] != "problems" {
			return "", fmt.Errorf("source: %w: %q is not a problem URL", domain.ErrInvalidInput, raw)
		}
		s = parts[1]
	}

	s = strings.ToLower(s)
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return "", fmt.Errorf("source: %w: invalid slug %q", domain.ErrInvalidInput, raw)
		}
	}
	return s, nil
}
