package services

import (
	"testing"
	"time"

	"biodata-platform/models"

	"github.com/stretchr/testify/assert"
)

func TestTransformBiodata(t *testing.T) {
	now := fixedClock(2024)()
	created := time.Date(2023, time.March, 4, 5, 6, 7, 0, time.UTC)

	doc := TransformBiodata(models.Biodata{
		ID:              "b1",
		FullName:        "Ahmed Hassan",
		BiodataType:     models.BiodataTypeMale,
		BirthYear:       "1995",
		Height:          `5'8"`,
		Occupation:      "engineer",
		PresentDivision: "Dhaka",
		PresentDistrict: "Gazipur",
		CreatedAt:       created,
	}, now)

	assert.Equal(t, "b1", doc.ID)
	assert.Equal(t, "b1", doc.DocumentID())
	assert.Equal(t, 29, doc.Age)
	assert.Equal(t, "Gazipur, Dhaka", doc.Location)
	assert.Equal(t, "Ahmed Hassan", doc.DisplayName)
	assert.Equal(t, "engineer", doc.Profession)
	assert.Equal(t, created.UnixMilli(), doc.CreatedAt)
	assert.Equal(t, now.UnixMilli(), doc.UpdatedAt)
}

func TestTransformBiodataDefaults(t *testing.T) {
	now := fixedClock(2024)()
	doc := TransformBiodata(models.Biodata{ID: "b2", BirthYear: "unknown", PresentDivision: "Sylhet"}, now)

	assert.Equal(t, anonymousName, doc.FullName)
	assert.Equal(t, anonymousName, doc.DisplayName)
	assert.Zero(t, doc.Age)
	assert.Equal(t, "Sylhet", doc.Location)
	assert.Empty(t, doc.Profession)
	assert.Equal(t, now.UnixMilli(), doc.CreatedAt)
}

func TestTransformPrefersProfession(t *testing.T) {
	doc := TransformBiodata(models.Biodata{Profession: "surgeon", Occupation: "doctor"}, time.Now())
	assert.Equal(t, "surgeon", doc.Profession)
	assert.Equal(t, "doctor", doc.Occupation)
}

func TestAgeFromBirthYear(t *testing.T) {
	now := fixedClock(2024)()
	tests := []struct {
		in   string
		want int
	}{
		{"1995", 29},
		{" 2000 ", 24},
		{"", 0},
		{"95s", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ageFromBirthYear(tt.in, now), "birth year %q", tt.in)
	}
}
