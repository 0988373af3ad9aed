package explorer

// DefaultQuery is searched whenever explorer mode is entered.
const DefaultQuery = "Top ranked universities globally"

// SuggestedQueries are the quick-search tags offered next to the search box.
var SuggestedQueries = []string{
	"Ivy League",
	"Top Engineering",
	"Affordable Public",
	"Europe Business",
}

// Banners shown in AppState.Error. A "could not load" banner means the
// content service answered with something unusable; "an error occurred"
// means the call itself failed.
const (
	BannerSearchFailed       = "Failed to fetch universities. Please try again."
	BannerDetailsNotFound    = "Could not load details for this university."
	BannerDetailsFailed      = "An error occurred while loading details."
	BannerProgramNotFound    = "Could not load program details."
	BannerProgramFailed      = "An error occurred while loading program details."
	BannerStoreNotConfigured = "Repository store is not configured. Please set STORE_URL and STORE_KEY."
)
