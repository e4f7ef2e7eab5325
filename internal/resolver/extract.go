package resolver

import (
	"regexp"

	"golang.org/x/text/width"

	"github.com/sells-group/calllist-cli/pkg/serpapi"
)

// phonePatterns are tried in order against each snippet. The bare
// digit-run pattern last: it matches almost any long number, so the
// hyphenated forms get first claim.
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{2,4}-\d{2,4}-\d{4}`),
	regexp.MustCompile(`\d{3}-\d{4}-\d{4}`),
	regexp.MustCompile(`\d{10,11}`),
}

// maxOrganicResults bounds the snippet scan.
const maxOrganicResults = 3

// ExtractPhone pulls a phone number out of a search response, in
// decreasing order of source reliability: the knowledge graph and the
// local pack carry provider-curated phone fields; organic snippets are
// free text matched against digit patterns, a lossy heuristic that can
// pick up an address fragment. First match wins.
func ExtractPhone(resp *serpapi.SearchResponse) (string, bool) {
	if kg := resp.KnowledgeGraph; kg != nil && kg.Phone != "" {
		return kg.Phone, true
	}

	if len(resp.LocalResults) > 0 && resp.LocalResults[0].Phone != "" {
		return resp.LocalResults[0].Phone, true
	}

	for i, result := range resp.OrganicResults {
		if i >= maxOrganicResults {
			break
		}
		// Japanese SERP snippets often carry full-width digits.
		snippet := width.Narrow.String(result.Snippet)
		for _, pattern := range phonePatterns {
			if m := pattern.FindString(snippet); m != "" {
				return m, true
			}
		}
	}

	return "", false
}
