package combiner

import (
	"fmt"
	"net/url"
	"strings"
)

// DedupSources collects every candidate's cited sources and deduplicates
// them by normalized URL — scheme+host+path lowercased, trailing slash
// stripped — per spec.md §4.5's source aggregation rule.
func DedupSources(candidates []Candidate) []Source {
	seen := make(map[string]bool)
	var out []Source
	for _, c := range candidates {
		for _, s := range c.Sources {
			key := normalizeURL(s.URI)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, s)
		}
	}
	return out
}

func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSuffix(raw, "/"))
	}
	path := strings.TrimSuffix(u.Path, "/")
	return strings.ToLower(u.Scheme + "://" + u.Host + path)
}

func renderReferences(sources []Source) string {
	var b strings.Builder
	b.WriteString("\n\n## References\n\n")
	for i, s := range sources {
		title := s.Title
		if title == "" {
			title = s.URI
		}
		fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, title, s.URI)
	}
	return b.String()
}
