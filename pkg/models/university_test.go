package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDegreeLevel(t *testing.T) {
	tests := []struct {
		input string
		want  DegreeLevel
	}{
		{"Undergraduate", DegreeUndergraduate},
		{"Bachelor of Science", DegreeUndergraduate},
		{"BSc", DegreeUndergraduate},
		{"Postgraduate", DegreePostgraduate},
		{"Graduate", DegreePostgraduate},
		{"Masters", DegreePostgraduate},
		{"MBA", DegreePostgraduate},
		{"PhD", DegreeDoctoral},
		{"Doctorate", DegreeDoctoral},
		{"  Certificate ", DegreeLevel("Certificate")},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDegreeLevel(tt.input))
		})
	}
}

func TestDegreeLevel_IsValid(t *testing.T) {
	assert.True(t, DegreeDoctoral.IsValid())
	assert.False(t, DegreeLevel("Certificate").IsValid())
}

func TestParseInstitutionType(t *testing.T) {
	assert.Equal(t, InstitutionPublic, ParseInstitutionType("public"))
	assert.Equal(t, InstitutionPrivate, ParseInstitutionType("PRIVATE"))
	assert.Equal(t, InstitutionPrivate, ParseInstitutionType("Private university"))
	assert.Equal(t, InstitutionType("Mixed"), ParseInstitutionType(" Mixed "))
	assert.False(t, InstitutionType("Mixed").IsValid())
}

func TestUniversity_Classifications(t *testing.T) {
	u := University{Classification: "Research, Ivy League,, STEM "}
	assert.Equal(t, []string{"Research", "Ivy League", "STEM"}, u.Classifications())

	assert.Empty(t, University{}.Classifications())
}

func TestUniversityDetails_Clone(t *testing.T) {
	rank := 3
	original := &UniversityDetails{
		University: University{Name: "MIT", WorldRanking: &rank},
		Programs:   []Program{{Name: "Physics", Degree: DegreeUndergraduate}},
		Sources:    []GroundingSource{{Title: "MIT", URI: "https://mit.edu"}},
	}

	c := original.Clone()
	require.NotNil(t, c)
	assert.Equal(t, original, c)

	*c.WorldRanking = 9
	c.Programs[0].Name = "Chemistry"
	c.Sources[0].URI = "https://example.com"

	assert.Equal(t, 3, *original.WorldRanking)
	assert.Equal(t, "Physics", original.Programs[0].Name)
	assert.Equal(t, "https://mit.edu", original.Sources[0].URI)

	var nilDetails *UniversityDetails
	assert.Nil(t, nilDetails.Clone())
}

func TestUniversityDetails_FindProgram(t *testing.T) {
	d := &UniversityDetails{Programs: []Program{
		{Name: "Computer Science", Degree: DegreeUndergraduate},
		{Name: "Economics", Degree: DegreePostgraduate},
	}}

	p, ok := d.FindProgram("economics")
	require.True(t, ok)
	assert.Equal(t, DegreePostgraduate, p.Degree)

	_, ok = d.FindProgram("Law")
	assert.False(t, ok)
}

func TestProgramDetails_Clone(t *testing.T) {
	original := &ProgramDetails{
		Program:    Program{Name: "Economics"},
		Curriculum: []string{"Microeconomics"},
	}

	c := original.Clone()
	c.Curriculum[0] = "Macroeconomics"

	assert.Equal(t, "Microeconomics", original.Curriculum[0])
	assert.NotNil(t, c.CareerProspects)
}
