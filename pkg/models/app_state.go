package models

// ViewMode selects which result set the explorer is showing.
type ViewMode string

const (
	// ModeExplorer shows ephemeral results from the content service.
	ModeExplorer ViewMode = "explorer"
	// ModeRepository shows rows persisted in the repository store.
	ModeRepository ViewMode = "repository"
)

// String returns the string representation of a ViewMode.
func (m ViewMode) String() string {
	return string(m)
}

// IsValid returns true if the mode is explorer or repository.
func (m ViewMode) IsValid() bool {
	return m == ModeExplorer || m == ModeRepository
}

// View is the deepest level the user has drilled into.
type View string

const (
	ViewList       View = "list"
	ViewUniversity View = "university"
	ViewProgram    View = "program"
)

// DetailPanel holds the side fetches of the university view. They run under
// their own flags and may overlap with the primary fetch.
type DetailPanel struct {
	Location        *LocationInfo `json:"location"`
	LoadingLocation bool          `json:"loadingLocation"`
	IsSaved         bool          `json:"isSaved"`
	IsSaving        bool          `json:"isSaving"`
}

// AppState is an immutable snapshot of one explorer session.
type AppState struct {
	Mode               ViewMode           `json:"mode"`
	View               View               `json:"view"`
	Universities       []University       `json:"universities"`
	SelectedUniversity *UniversityDetails `json:"selectedUniversity"`
	SelectedProgram    *ProgramDetails    `json:"selectedProgram"`
	Loading            bool               `json:"loading"`
	Error              *string            `json:"error"`
	Detail             DetailPanel        `json:"detail"`

	// ScrollSeq increases every time the view should scroll back to the top.
	ScrollSeq uint64 `json:"scrollSeq"`

	StoreConfigured  bool     `json:"storeConfigured"`
	SuggestedQueries []string `json:"suggestedQueries,omitempty"`
}

// CurrentView derives the deepest populated selection.
func (s AppState) CurrentView() View {
	switch {
	case s.SelectedProgram != nil:
		return ViewProgram
	case s.SelectedUniversity != nil:
		return ViewUniversity
	default:
		return ViewList
	}
}

// Clone returns a deep copy of the state.
func (s *AppState) Clone() AppState {
	c := *s
	c.Universities = make([]University, len(s.Universities))
	for i, u := range s.Universities {
		if u.WorldRanking != nil {
			rank := *u.WorldRanking
			u.WorldRanking = &rank
		}
		c.Universities[i] = u
	}
	c.SelectedUniversity = s.SelectedUniversity.Clone()
	c.SelectedProgram = s.SelectedProgram.Clone()
	if s.Error != nil {
		msg := *s.Error
		c.Error = &msg
	}
	if s.Detail.Location != nil {
		loc := *s.Detail.Location
		if loc.MapURL != nil {
			u := *loc.MapURL
			loc.MapURL = &u
		}
		c.Detail.Location = &loc
	}
	c.SuggestedQueries = append([]string(nil), s.SuggestedQueries...)
	c.View = c.CurrentView()
	return c
}
