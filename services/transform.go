package services

import (
	"strconv"
	"strings"
	"time"

	"biodata-platform/models"
)

const anonymousName = "Anonymous"

// TransformBiodata flattens a stored profile into its search index document.
// It is total: every field has a default, so any profile shape yields a
// document.
func TransformBiodata(b models.Biodata, now time.Time) models.IndexDocument {
	name := strings.TrimSpace(b.FullName)
	if name == "" {
		name = anonymousName
	}

	profession := b.Profession
	if profession == "" {
		profession = b.Occupation
	}

	return models.IndexDocument{
		ID:              b.ID,
		FullName:        name,
		BiodataType:     b.BiodataType,
		MaritalStatus:   b.MaritalStatus,
		Age:             ageFromBirthYear(b.BirthYear, now),
		Height:          b.Height,
		Complexion:      b.Complexion,
		Profession:      profession,
		Occupation:      b.Occupation,
		FamilyStatus:    b.FamilyStatus,
		PresentDivision: b.PresentDivision,
		PresentDistrict: b.PresentDistrict,
		PresentUpazilla: b.PresentUpazilla,
		Address:         b.Address,
		Location:        joinLocation(b.PresentDistrict, b.PresentDivision),
		DisplayName:     name,
		BirthYear:       b.BirthYear,
		CreatedAt:       millisOrNow(b.CreatedAt, now),
		UpdatedAt:       millisOrNow(b.UpdatedAt, now),
	}
}

func ageFromBirthYear(birthYear string, now time.Time) int {
	year, err := strconv.Atoi(strings.TrimSpace(birthYear))
	if err != nil {
		return 0
	}
	return now.Year() - year
}

// joinLocation renders "district, division" without dangling separators.
func joinLocation(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

func millisOrNow(t, now time.Time) int64 {
	if t.IsZero() {
		return now.UnixMilli()
	}
	return t.UnixMilli()
}
