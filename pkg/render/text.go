package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/ekaya-inc/ekaya-campus/pkg/models"
)

// Renderer formats catalog records as terminal text.
type Renderer struct {
	styles Styles
}

// NewRenderer creates a Renderer with the given styles.
func NewRenderer(styles Styles) *Renderer {
	return &Renderer{styles: styles}
}

// Count pluralizes noun for n, e.g. "1 institution", "3 institutions".
func Count(n int, noun string) string {
	if n != 1 {
		noun = inflection.Plural(noun)
	}
	return fmt.Sprintf("%d %s", n, noun)
}

// ListHeading is the title above the list in each mode.
func ListHeading(mode models.ViewMode) string {
	if mode == models.ModeRepository {
		return "Saved in Repository"
	}
	return "Explorer Feed"
}

// LoadingText is shown while the primary fetch of a mode is running.
func LoadingText(mode models.ViewMode) string {
	if mode == models.ModeRepository {
		return "Accessing Secure Backend..."
	}
	return "Consulting the Oracle..."
}

// EmptyState returns the title and hint for an empty list.
func EmptyState(mode models.ViewMode) (title, hint string) {
	if mode == models.ModeRepository {
		return "Repository is empty", "Go to the explorer to start adding institutions."
	}
	return "No universities found", "Try adjusting your search terms."
}

// State renders whatever view the snapshot is on.
func (r *Renderer) State(state models.AppState) string {
	var sb strings.Builder
	if state.Error != nil {
		sb.WriteString(r.styles.Banner.Render("Backend Notice: " + *state.Error))
		sb.WriteString("\n\n")
	}

	switch state.CurrentView() {
	case models.ViewProgram:
		sb.WriteString(r.Program(state.SelectedUniversity.Name, state.SelectedProgram))
	case models.ViewUniversity:
		sb.WriteString(r.University(state.SelectedUniversity, &state.Detail))
	default:
		if state.Loading {
			sb.WriteString(r.styles.Muted.Render(LoadingText(state.Mode)))
			sb.WriteString("\n")
			break
		}
		sb.WriteString(r.List(state.Mode, state.Universities))
	}
	return sb.String()
}

// List renders the university cards of a mode, with header and empty state.
func (r *Renderer) List(mode models.ViewMode, universities []models.University) string {
	var sb strings.Builder
	sb.WriteString(r.styles.Heading.Render(ListHeading(mode)))
	sb.WriteString("  ")
	sb.WriteString(r.styles.Muted.Render(Count(len(universities), "institution") + " tracked"))
	sb.WriteString("\n\n")

	if len(universities) == 0 {
		title, hint := EmptyState(mode)
		sb.WriteString(title)
		sb.WriteString("\n")
		sb.WriteString(r.styles.Muted.Render(hint))
		sb.WriteString("\n")
		return sb.String()
	}

	for i, u := range universities {
		sb.WriteString(r.styles.Card.Render(r.card(i+1, u)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (r *Renderer) card(n int, u models.University) string {
	var sb strings.Builder
	title := fmt.Sprintf("%d. %s", n, u.Name)
	sb.WriteString(r.styles.Title.Render(title))
	if u.WorldRanking != nil {
		sb.WriteString("  ")
		sb.WriteString(r.styles.Rank.Render("#" + strconv.Itoa(*u.WorldRanking)))
	}
	sb.WriteString("\n")

	place := strings.Join(nonEmpty(u.Location, u.Country), ", ")
	meta := strings.Join(nonEmpty(place, u.Type.String()), " · ")
	if meta != "" {
		sb.WriteString(r.styles.Muted.Render(meta))
		sb.WriteString("\n")
	}
	if chips := r.chips(u.Classifications()); chips != "" {
		sb.WriteString(chips)
		sb.WriteString("\n")
	}
	sb.WriteString(r.styles.Muted.Render("id: " + u.ID))
	return sb.String()
}

func (r *Renderer) chips(labels []string) string {
	rendered := make([]string, len(labels))
	for i, l := range labels {
		rendered[i] = r.styles.Chip.Render("[" + l + "]")
	}
	return strings.Join(rendered, " ")
}

// University renders the detail view. detail may be nil.
func (r *Renderer) University(d *models.UniversityDetails, detail *models.DetailPanel) string {
	var sb strings.Builder
	sb.WriteString(r.styles.Title.Render(d.Name))
	if d.WorldRanking != nil {
		sb.WriteString("  ")
		sb.WriteString(r.styles.Rank.Render("World rank #" + strconv.Itoa(*d.WorldRanking)))
	}
	sb.WriteString("\n")

	if meta := strings.Join(nonEmpty(d.Location, d.Country, d.Type.String()), " · "); meta != "" {
		sb.WriteString(r.styles.Muted.Render(meta))
		sb.WriteString("\n")
	}
	if chips := r.chips(d.Classifications()); chips != "" {
		sb.WriteString(chips)
		sb.WriteString("\n")
	}
	if d.Website != "" {
		sb.WriteString(r.styles.Link.Render(d.Website))
		sb.WriteString("\n")
	}
	if d.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(d.Description)
		sb.WriteString("\n")
	}

	if detail != nil {
		sb.WriteString("\n")
		switch {
		case detail.IsSaving:
			sb.WriteString(r.styles.Muted.Render("Updating..."))
		case detail.IsSaved:
			sb.WriteString(r.styles.Saved.Render("In Repository"))
		default:
			sb.WriteString(r.styles.Muted.Render("Not saved"))
		}
		sb.WriteString("\n")

		sb.WriteString("\n")
		sb.WriteString(r.styles.Heading.Render("Campus Location"))
		sb.WriteString("\n")
		switch {
		case detail.LoadingLocation:
			sb.WriteString(r.styles.Muted.Render("Locating campus..."))
			sb.WriteString("\n")
		case detail.Location != nil:
			sb.WriteString(detail.Location.Text)
			sb.WriteString("\n")
			if detail.Location.MapURL != nil {
				sb.WriteString(r.styles.Link.Render(*detail.Location.MapURL))
				sb.WriteString("\n")
			}
		}
	}

	sb.WriteString("\n")
	sb.WriteString(r.styles.Heading.Render("Academic Programs"))
	sb.WriteString("  ")
	sb.WriteString(r.styles.Muted.Render(Count(len(d.Programs), "program")))
	sb.WriteString("\n")
	for _, p := range d.Programs {
		line := fmt.Sprintf("• %s", p.Name)
		if extra := strings.Join(nonEmpty(p.Degree.String(), p.Faculty, p.Duration, p.TuitionEstimate), " · "); extra != "" {
			line += "  " + r.styles.Muted.Render(extra)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if len(d.Sources) > 0 {
		sb.WriteString("\n")
		sb.WriteString(r.styles.Heading.Render("Sources"))
		sb.WriteString("\n")
		for _, src := range d.Sources {
			sb.WriteString(fmt.Sprintf("- %s %s\n", src.Title, r.styles.Link.Render(src.URI)))
		}
	}
	return sb.String()
}

// Program renders the program view.
func (r *Renderer) Program(universityName string, p *models.ProgramDetails) string {
	var sb strings.Builder
	sb.WriteString(r.styles.Title.Render(p.Name))
	sb.WriteString("\n")
	sb.WriteString(r.styles.Muted.Render(strings.Join(nonEmpty(universityName, p.Degree.String(), p.Faculty), " · ")))
	sb.WriteString("\n")
	if facts := strings.Join(nonEmpty(p.Duration, p.TuitionEstimate), " · "); facts != "" {
		sb.WriteString(facts)
		sb.WriteString("\n")
	}
	if p.Overview != "" {
		sb.WriteString("\n")
		sb.WriteString(p.Overview)
		sb.WriteString("\n")
	}

	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		sb.WriteString("\n")
		sb.WriteString(r.styles.Heading.Render(title))
		sb.WriteString("\n")
		for _, item := range items {
			sb.WriteString("• ")
			sb.WriteString(item)
			sb.WriteString("\n")
		}
	}
	section("Curriculum", p.Curriculum)
	section("Career Prospects", p.CareerProspects)
	section("Admission Requirements", p.AdmissionRequirements)
	return sb.String()
}

// Location renders a standalone location lookup.
func (r *Renderer) Location(info models.LocationInfo) string {
	if info.MapURL == nil {
		return info.Text
	}
	return info.Text + "\n" + r.styles.Link.Render(*info.MapURL)
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
