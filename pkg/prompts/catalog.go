package prompts

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-campus/pkg/llm"
	"github.com/ekaya-inc/ekaya-campus/pkg/models"
)

// MaxSearchResults caps the number of universities a search returns.
const MaxSearchResults = 5

// SystemMessage frames every catalog request.
const SystemMessage = "You are an expert higher-education advisor. You answer with accurate, current facts " +
	"about universities and their academic programs. When asked for JSON you return JSON only."

// quote makes user text safe to embed inside a double-quoted prompt phrase.
func quote(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, `"`, "'")
}

// BuildSearchPrompt asks for up to MaxSearchResults universities matching a free-text query.
func BuildSearchPrompt(query string) string {
	return fmt.Sprintf(
		"Search for universities based on the query: %q. "+
			"Return a JSON array of %d universities with their name, location, country, "+
			"type (Public or Private), and a one-sentence classification category. "+
			"Include a short description and the official website when known.",
		quote(query), MaxSearchResults)
}

// SearchSchema is the response schema for BuildSearchPrompt.
func SearchSchema() *llm.Schema {
	return llm.ArrayOf(universitySchema(false))
}

func universitySchema(withDetails bool) *llm.Schema {
	s := &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"name":           llm.String("Official university name"),
			"location":       llm.String("City and region"),
			"country":        llm.String("Country"),
			"type":           {Type: llm.TypeString, Enum: []string{"Public", "Private"}},
			"classification": llm.String("Comma-separated categories, e.g. Ivy League, Research Intensive"),
			"description":    llm.String("Short description"),
			"website":        llm.String("Official website URL"),
		},
		Order:    []string{"name", "location", "country", "type", "classification", "description", "website"},
		Required: []string{"name", "location", "country", "type", "classification"},
	}
	if withDetails {
		s.Properties["worldRanking"] = llm.Number("Current global ranking position, omitted if unranked")
		s.Properties["programs"] = llm.ArrayOf(programSchema())
		s.Order = append(s.Order, "worldRanking", "programs")
		s.Required = append(s.Required, "programs")
	}
	return s
}

func programSchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"name":            llm.String("Program name"),
			"degree":          {Type: llm.TypeString, Enum: []string{"Undergraduate", "Postgraduate", "Doctoral"}},
			"faculty":         llm.String("Faculty or school"),
			"duration":        llm.String("Typical duration, e.g. 4 years"),
			"tuitionEstimate": llm.String("Approximate annual tuition with currency"),
		},
		Order:    []string{"name", "degree", "faculty", "duration", "tuitionEstimate"},
		Required: []string{"name", "degree"},
	}
}

// BuildDetailsPrompt asks for the full profile of one university.
func BuildDetailsPrompt(universityName string) string {
	return fmt.Sprintf(
		"Provide deep insights for the university %q. Include its full description, website, "+
			"world ranking (if available), and a list of 6-8 popular programs across different faculties "+
			"with degree type, duration, and tuition estimate. Also include classification categories "+
			"like \"Ivy League\", \"Research Intensive\", \"Art-focused\", etc.",
		quote(universityName))
}

// DetailsSchema is the response schema for BuildDetailsPrompt.
func DetailsSchema() *llm.Schema {
	return universitySchema(true)
}

// BuildProgramPrompt asks for the enrichment of a single program.
func BuildProgramPrompt(universityName string, program models.Program) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the %q program at %q. ", quote(program.Name), quote(universityName))
	if program.Degree != "" {
		fmt.Fprintf(&b, "It is a %s degree", program.Degree)
		if program.Faculty != "" {
			fmt.Fprintf(&b, " in the %s", quote(program.Faculty))
		}
		b.WriteString(". ")
	}
	b.WriteString("Provide a detailed overview, 5-6 core curriculum modules, 4-5 career prospects, " +
		"and 3-4 standard admission requirements.")
	return b.String()
}

// ProgramSchema is the response schema for BuildProgramPrompt.
func ProgramSchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"overview":              llm.String("Detailed overview"),
			"curriculum":            llm.ArrayOf(llm.String("Core module")),
			"careerProspects":       llm.ArrayOf(llm.String("Career path")),
			"admissionRequirements": llm.ArrayOf(llm.String("Requirement")),
		},
		Order:    []string{"overview", "curriculum", "careerProspects", "admissionRequirements"},
		Required: []string{"overview", "curriculum", "careerProspects", "admissionRequirements"},
	}
}

// BuildLocationPrompt asks where a university is, with coordinates so a map
// link can be built when maps grounding returns none.
func BuildLocationPrompt(universityName string) string {
	return fmt.Sprintf(
		"Where exactly is %s located? Give me a brief address and mention nearby landmarks. "+
			"Also give the latitude and longitude of the main campus.",
		quote(universityName))
}

// LocationSchema is the response schema for BuildLocationPrompt.
func LocationSchema() *llm.Schema {
	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"address":   llm.String("Brief street address"),
			"landmarks": llm.String("One or two sentences about nearby landmarks"),
			"latitude":  llm.Number("Latitude of the main campus"),
			"longitude": llm.Number("Longitude of the main campus"),
		},
		Order:    []string{"address", "landmarks", "latitude", "longitude"},
		Required: []string{"address"},
	}
}
