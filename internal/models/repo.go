package models

// RepositorySummary is the display-relevant subset of a fetched GitHub
// repository record. RepositoryURL is always present; HomepageURL may be empty.
type RepositorySummary struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	WatchCount    int    `json:"watchCount"`
	RepositoryURL string `json:"repositoryUrl"`
	HomepageURL   string `json:"homepageUrl,omitempty"`
}

// HasHomepage reports whether the homepage link should be rendered:
// HomepageURL must be non-empty and differ from RepositoryURL.
func (r RepositorySummary) HasHomepage() bool {
	return r.HomepageURL != "" && r.HomepageURL != r.RepositoryURL
}
