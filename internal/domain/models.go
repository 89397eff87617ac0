package domain

// EntityType is the category of search target.
type EntityType string

const (
	EntityRepositories EntityType = "Repositories"
	EntityIssues       EntityType = "Issues"
	EntityWikis        EntityType = "Wikis"
)

// EntityTypes lists every accepted entity type.
var EntityTypes = []EntityType{EntityRepositories, EntityIssues, EntityWikis}

// Valid reports whether t is one of the accepted entity types.
func (t EntityType) Valid() bool {
	for _, et := range EntityTypes {
		if t == et {
			return true
		}
	}
	return false
}

// CrawlRequest is the raw request as supplied by a caller (CLI file, API body).
// A nil Keywords slice means the field was absent.
type CrawlRequest struct {
	Keywords []string `json:"keywords" yaml:"keywords"`
	Proxies  []string `json:"proxies,omitempty" yaml:"proxies"`
	Type     string   `json:"type" yaml:"type"`
}

// SearchRequest is the validated, canonical form of a CrawlRequest.
type SearchRequest struct {
	Keywords []string   `json:"keywords"`
	Proxy    string     `json:"proxy"`
	Type     EntityType `json:"type"`
}

// SearchResult is one entry parsed from a search results page.
type SearchResult struct {
	Rank    int
	URL     string
	Payload map[string]any
}

// RepositoryDetail holds what one enrichment fetch learns about a repository.
type RepositoryDetail struct {
	Owner         string             `json:"owner"`
	LanguageStats map[string]float64 `json:"language_stats"`
}

// ReportEntry is a single element of the emitted report.
type ReportEntry struct {
	URL   string            `json:"url"`
	Extra *RepositoryDetail `json:"extra,omitempty"`
}
