package viewmodel

// Row is the row descriptor for one rendered list entry: the minimal data
// the render target needs. HomepageURL is populated only when the homepage
// is non-empty and differs from the repository URL.
type Row struct {
	Key           int64  `json:"key"`
	Name          string `json:"name"`
	WatchCount    int    `json:"watchCount"`
	RepositoryURL string `json:"repositoryUrl"`
	HomepageURL   string `json:"homepageUrl,omitempty"`
}

// Projection is the render-ready view of the current state. Exactly one
// variant is meaningful: Loading (wait indicator), Error (Message), or
// Ready (Rows in fetch order).
type Projection struct {
	Phase   Phase  `json:"phase"`
	Message string `json:"message,omitempty"`
	Rows    []Row  `json:"rows,omitempty"`
}

// Render projects the current state into row descriptors. Pure with respect
// to the view model: no side effects, no state mutation.
func (vm *RepoListViewModel) Render() Projection {
	st := vm.State()

	switch st.Phase {
	case PhaseError:
		return Projection{Phase: PhaseError, Message: st.Message}
	case PhaseReady:
		rows := make([]Row, 0, len(st.Items))
		for _, item := range st.Items {
			row := Row{
				Key:           item.ID,
				Name:          item.Name,
				WatchCount:    item.WatchCount,
				RepositoryURL: item.RepositoryURL,
			}
			if item.HasHomepage() {
				row.HomepageURL = item.HomepageURL
			}
			rows = append(rows, row)
		}
		return Projection{Phase: PhaseReady, Rows: rows}
	default:
		return Projection{Phase: PhaseLoading}
	}
}
