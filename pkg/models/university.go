// Package models contains domain types for ekaya-campus.
package models

import (
	"strings"
)

// InstitutionType distinguishes public from private universities.
type InstitutionType string

const (
	InstitutionPublic  InstitutionType = "Public"
	InstitutionPrivate InstitutionType = "Private"
)

// String returns the string representation of an InstitutionType.
func (t InstitutionType) String() string {
	return string(t)
}

// IsValid returns true if the type is one of the known institution types.
func (t InstitutionType) IsValid() bool {
	switch t {
	case InstitutionPublic, InstitutionPrivate:
		return true
	default:
		return false
	}
}

// ParseInstitutionType normalizes free-form model output ("public", "PRIVATE",
// "Private university") to an InstitutionType. Unknown values are returned as-is
// so nothing the service said is silently dropped.
func ParseInstitutionType(s string) InstitutionType {
	lower := strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(lower, "public"):
		return InstitutionPublic
	case strings.HasPrefix(lower, "private"):
		return InstitutionPrivate
	default:
		return InstitutionType(strings.TrimSpace(s))
	}
}

// DegreeLevel is the level of an academic program.
type DegreeLevel string

const (
	DegreeUndergraduate DegreeLevel = "Undergraduate"
	DegreePostgraduate  DegreeLevel = "Postgraduate"
	DegreeDoctoral      DegreeLevel = "Doctoral"
)

// String returns the string representation of a DegreeLevel.
func (d DegreeLevel) String() string {
	return string(d)
}

// IsValid returns true if the degree is one of the known levels.
func (d DegreeLevel) IsValid() bool {
	switch d {
	case DegreeUndergraduate, DegreePostgraduate, DegreeDoctoral:
		return true
	default:
		return false
	}
}

// ParseDegreeLevel maps common spellings ("Bachelor", "Masters", "PhD") onto a DegreeLevel.
func ParseDegreeLevel(s string) DegreeLevel {
	lower := strings.ToLower(strings.TrimSpace(s))
	switch {
	case lower == "":
		return ""
	case strings.Contains(lower, "doctor"), strings.Contains(lower, "phd"):
		return DegreeDoctoral
	case strings.Contains(lower, "undergrad"), strings.Contains(lower, "bachelor"),
		lower == "bsc", lower == "ba", lower == "beng":
		return DegreeUndergraduate
	case strings.Contains(lower, "postgrad"), strings.Contains(lower, "graduate"), strings.Contains(lower, "master"),
		lower == "msc", lower == "ma", lower == "mba", lower == "meng":
		return DegreePostgraduate
	default:
		return DegreeLevel(strings.TrimSpace(s))
	}
}

// University is a search result or repository row.
// ID is ephemeral ("<unix-millis>-<index>") for live search results and the
// store's surrogate key for rows loaded from the repository.
type University struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Location       string          `json:"location"`
	Country        string          `json:"country"`
	Type           InstitutionType `json:"type"`
	Classification string          `json:"classification"`
	WorldRanking   *int            `json:"worldRanking,omitempty"`
	Description    string          `json:"description,omitempty"`
	Website        string          `json:"website,omitempty"`
}

// Classifications splits the comma-separated classification into trimmed, non-empty labels.
func (u University) Classifications() []string {
	parts := strings.Split(u.Classification, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			labels = append(labels, p)
		}
	}
	return labels
}

// GroundingSource is a citation attached to a grounded content-service response.
type GroundingSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Program summarizes one academic program offered by a university.
type Program struct {
	Name            string      `json:"name"`
	Degree          DegreeLevel `json:"degree"`
	Faculty         string      `json:"faculty"`
	Duration        string      `json:"duration"`
	TuitionEstimate string      `json:"tuitionEstimate"`
}

// UniversityDetails is a University enriched with its programs and grounding sources.
type UniversityDetails struct {
	University
	Programs []Program         `json:"programs"`
	Sources  []GroundingSource `json:"sources"`
}

// Clone returns a deep copy so callers can hand details across goroutines.
func (d *UniversityDetails) Clone() *UniversityDetails {
	if d == nil {
		return nil
	}
	c := *d
	if d.WorldRanking != nil {
		rank := *d.WorldRanking
		c.WorldRanking = &rank
	}
	c.Programs = append(make([]Program, 0, len(d.Programs)), d.Programs...)
	c.Sources = append(make([]GroundingSource, 0, len(d.Sources)), d.Sources...)
	return &c
}

// FindProgram returns the program with the given name, if present.
func (d *UniversityDetails) FindProgram(name string) (Program, bool) {
	for _, p := range d.Programs {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Program{}, false
}

// ProgramDetails is a Program merged with its enrichment payload. Never persisted.
type ProgramDetails struct {
	Program
	Overview              string   `json:"overview"`
	Curriculum            []string `json:"curriculum"`
	CareerProspects       []string `json:"careerProspects"`
	AdmissionRequirements []string `json:"admissionRequirements"`
}

// Clone returns a deep copy.
func (p *ProgramDetails) Clone() *ProgramDetails {
	if p == nil {
		return nil
	}
	c := *p
	c.Curriculum = append([]string{}, p.Curriculum...)
	c.CareerProspects = append([]string{}, p.CareerProspects...)
	c.AdmissionRequirements = append([]string{}, p.AdmissionRequirements...)
	return &c
}

// LatLng is a geographic coordinate supplied by the user's device.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationInfo is a best-effort address description with an optional map link.
type LocationInfo struct {
	Text   string  `json:"text"`
	MapURL *string `json:"mapUrl"`
}
