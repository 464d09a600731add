package models

import (
	"time"
)

const (
	BiodataTypeMale   = "males biodata"
	BiodataTypeFemale = "females biodata"
)

// Biodata is the canonical profile document kept in the "biodata" collection.
// Every field except the identifiers and timestamps is optional; the wizard
// submits whatever sections the user has completed.
type Biodata struct {
	ID     string `bson:"_id,omitempty" json:"id"`
	UserID string `bson:"userId,omitempty" json:"userId"`

	// General info
	BiodataType   string `bson:"biodataType,omitempty" json:"biodataType,omitempty"`
	MaritalStatus string `bson:"maritalStatus,omitempty" json:"maritalStatus,omitempty"`
	BirthYear     string `bson:"birthYear,omitempty" json:"birthYear,omitempty"`
	Height        string `bson:"height,omitempty" json:"height,omitempty"`
	Complexion    string `bson:"complexion,omitempty" json:"complexion,omitempty"`
	Weight        string `bson:"weight,omitempty" json:"weight,omitempty"`
	BloodGroup    string `bson:"bloodGroup,omitempty" json:"bloodGroup,omitempty"`
	Nationality   string `bson:"nationality,omitempty" json:"nationality,omitempty"`

	// Addresses
	Address            string `bson:"address,omitempty" json:"address,omitempty"`
	PresentCountry     string `bson:"presentCountry,omitempty" json:"presentCountry,omitempty"`
	PresentDivision    string `bson:"presentDivision,omitempty" json:"presentDivision,omitempty"`
	PresentDistrict    string `bson:"presentDistrict,omitempty" json:"presentDistrict,omitempty"`
	PresentUpazilla    string `bson:"presentUpazilla,omitempty" json:"presentUpazilla,omitempty"`
	PermanentCountry   string `bson:"permanentCountry,omitempty" json:"permanentCountry,omitempty"`
	PermanentDivision  string `bson:"permanentDivision,omitempty" json:"permanentDivision,omitempty"`
	PermanentDistrict  string `bson:"permanentDistrict,omitempty" json:"permanentDistrict,omitempty"`
	PermanentUpazilla  string `bson:"permanentUpazilla,omitempty" json:"permanentUpazilla,omitempty"`

	// Education
	HighestDegree  string `bson:"highestDegree,omitempty" json:"highestDegree,omitempty"`
	Institution    string `bson:"institution,omitempty" json:"institution,omitempty"`
	GraduationYear int    `bson:"graduationYear,omitempty" json:"graduationYear,omitempty"`

	// Family
	FatherName       string `bson:"fatherName,omitempty" json:"fatherName,omitempty"`
	IsFatherAlive    string `bson:"isFatherAlive,omitempty" json:"isFatherAlive,omitempty"`
	FatherProfession string `bson:"fatherProfession,omitempty" json:"fatherProfession,omitempty"`
	MotherName       string `bson:"motherName,omitempty" json:"motherName,omitempty"`
	IsMotherAlive    string `bson:"isMotherAlive,omitempty" json:"isMotherAlive,omitempty"`
	MotherProfession string `bson:"motherProfession,omitempty" json:"motherProfession,omitempty"`
	FamilyStatus     string `bson:"familyStatus,omitempty" json:"familyStatus,omitempty"`
	NumberOfSiblings int    `bson:"numberOfSiblings,omitempty" json:"numberOfSiblings,omitempty"`

	// Personal details
	Clothing           string `bson:"clothing,omitempty" json:"clothing,omitempty"`
	HasBeard           string `bson:"hasBeard,omitempty" json:"hasBeard,omitempty"`
	BeardSince         string `bson:"beardSince,omitempty" json:"beardSince,omitempty"`
	ClothesAboveAnkles string `bson:"clothesAboveAnkles,omitempty" json:"clothesAboveAnkles,omitempty"`
	WearNiqab          string `bson:"wearNiqab,omitempty" json:"wearNiqab,omitempty"`
	NiqabSince         string `bson:"niqabSince,omitempty" json:"niqabSince,omitempty"`
	PraysFiveTimes     string `bson:"praysFiveTimes,omitempty" json:"praysFiveTimes,omitempty"`
	MahramNonMahram    string `bson:"mahramNonMahram,omitempty" json:"mahramNonMahram,omitempty"`
	RecitesQuran       string `bson:"recitesQuran,omitempty" json:"recitesQuran,omitempty"`
	Fiqh               string `bson:"fiqh,omitempty" json:"fiqh,omitempty"`
	Diseases           string `bson:"diseases,omitempty" json:"diseases,omitempty"`
	DramasMoviesSongs  string `bson:"dramasMoviesSongs,omitempty" json:"dramasMoviesSongs,omitempty"`
	MazarBeliefs       string `bson:"mazarBeliefs,omitempty" json:"mazarBeliefs,omitempty"`
	Hobbies            string `bson:"hobbies,omitempty" json:"hobbies,omitempty"`

	// Occupation
	Profession              string `bson:"profession,omitempty" json:"profession,omitempty"`
	Occupation              string `bson:"occupation,omitempty" json:"occupation,omitempty"`
	DescriptionOfProfession string `bson:"descriptionOfProfession,omitempty" json:"descriptionOfProfession,omitempty"`
	MonthlyIncome           int    `bson:"monthlyIncome,omitempty" json:"monthlyIncome,omitempty"`

	// Marriage
	GuardiansAgree            string `bson:"guardiansAgree,omitempty" json:"guardiansAgree,omitempty"`
	KeepWifeInVeil            string `bson:"keepWifeInVeil,omitempty" json:"keepWifeInVeil,omitempty"`
	AllowWifeToStudy          string `bson:"allowWifeToStudy,omitempty" json:"allowWifeToStudy,omitempty"`
	AllowWifeToDoJob          string `bson:"allowWifeToDoJob,omitempty" json:"allowWifeToDoJob,omitempty"`
	LiveWithWifeAfterMarriage string `bson:"liveWithWifeAfterMarriage,omitempty" json:"liveWithWifeAfterMarriage,omitempty"`
	WantToDoJobAfterMarriage  string `bson:"wantToDoJobAfterMarriage,omitempty" json:"wantToDoJobAfterMarriage,omitempty"`
	WantToStudyAfterMarriage  string `bson:"wantToStudyAfterMarriage,omitempty" json:"wantToStudyAfterMarriage,omitempty"`
	MarriageThoughts          string `bson:"marriageThoughts,omitempty" json:"marriageThoughts,omitempty"`

	// Expected life partner
	ExpectedAge                      string `bson:"expectedAge,omitempty" json:"expectedAge,omitempty"`
	ExpectedComplexion               string `bson:"expectedComplexion,omitempty" json:"expectedComplexion,omitempty"`
	ExpectedHeight                   string `bson:"expectedHeight,omitempty" json:"expectedHeight,omitempty"`
	ExpectedEducationalQualification string `bson:"expectedEducationalQualification,omitempty" json:"expectedEducationalQualification,omitempty"`
	ExpectedDistrict                 string `bson:"expectedDistrict,omitempty" json:"expectedDistrict,omitempty"`
	ExpectedMaritalStatus            string `bson:"expectedMaritalStatus,omitempty" json:"expectedMaritalStatus,omitempty"`
	ExpectedProfession               string `bson:"expectedProfession,omitempty" json:"expectedProfession,omitempty"`
	ExpectedFinancialCondition       string `bson:"expectedFinancialCondition,omitempty" json:"expectedFinancialCondition,omitempty"`
	ExpectedQualities                string `bson:"expectedQualities,omitempty" json:"expectedQualities,omitempty"`

	// Pledge
	ParentsKnow string `bson:"parentsKnow,omitempty" json:"parentsKnow,omitempty"`
	AllInfoTrue string `bson:"allInfoTrue,omitempty" json:"allInfoTrue,omitempty"`

	// Contact
	FullName                 string `bson:"fullName,omitempty" json:"fullName,omitempty"`
	GuardianMobileNumber     string `bson:"guardianMobileNumber,omitempty" json:"guardianMobileNumber,omitempty"`
	RelationshipWithGuardian string `bson:"relationshipWithGuardian,omitempty" json:"relationshipWithGuardian,omitempty"`
	EmailToReceiveBiodata    string `bson:"emailToReceiveBiodata,omitempty" json:"emailToReceiveBiodata,omitempty"`

	IsTestData bool      `bson:"isTestData,omitempty" json:"isTestData,omitempty"`
	CreatedAt  time.Time `bson:"createdAt,omitempty" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt,omitempty" json:"updatedAt"`
}

var (
	maleOnlyFields = []string{
		"hasBeard", "beardSince", "clothesAboveAnkles",
		"keepWifeInVeil", "allowWifeToStudy", "allowWifeToDoJob", "liveWithWifeAfterMarriage",
	}
	femaleOnlyFields = []string{
		"wearNiqab", "niqabSince",
		"wantToDoJobAfterMarriage", "wantToStudyAfterMarriage",
	}
)

// IrrelevantFields lists the stored field names that do not apply to the
// biodata type. Unknown types have none.
func (b *Biodata) IrrelevantFields() []string {
	switch b.BiodataType {
	case BiodataTypeMale:
		return femaleOnlyFields
	case BiodataTypeFemale:
		return maleOnlyFields
	}
	return nil
}

// CleanForSave clears the gender-specific answers that do not apply to the
// biodata type. Empty fields are dropped by the omitempty tags on write.
func (b *Biodata) CleanForSave() {
	switch b.BiodataType {
	case BiodataTypeMale:
		b.WearNiqab = ""
		b.NiqabSince = ""
		b.WantToDoJobAfterMarriage = ""
		b.WantToStudyAfterMarriage = ""
	case BiodataTypeFemale:
		b.HasBeard = ""
		b.BeardSince = ""
		b.ClothesAboveAnkles = ""
		b.KeepWifeInVeil = ""
		b.AllowWifeToStudy = ""
		b.AllowWifeToDoJob = ""
		b.LiveWithWifeAfterMarriage = ""
	}
}

// PlatformStatistics is rendered on the home page.
type PlatformStatistics struct {
	TotalBiodata  int64 `json:"totalBiodata"`
	MaleBiodata   int64 `json:"maleBiodata"`
	FemaleBiodata int64 `json:"femaleBiodata"`
}

type PopularFilters struct {
	Divisions   []string `json:"divisions"`
	Districts   []string `json:"districts"`
	Professions []string `json:"professions"`
	Educations  []string `json:"educations"`
}

type TestDataStats struct {
	Total int64 `json:"total"`
	Test  int64 `json:"test"`
	Real  int64 `json:"real"`
}
