package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"biodata-platform/internal/logger"
	"biodata-platform/models"

	"github.com/google/uuid"
)

const DefaultInjectCount = 50

var ErrInvalidCount = errors.New("count must be a positive number")

var sample = struct {
	maritalStatuses  []string
	complexions      []string
	bloodGroups      []string
	divisions        []string
	districts        map[string][]string
	heights          []string
	degrees          []string
	occupations      []string
	familyStatuses   []string
	clothingStyles   []string
	yesNo            []string
	fiqhSchools      []string
	diseases         []string
	hobbies          []string
	marriageThoughts []string
	qualities        []string
	maleNames        []string
	femaleNames      []string
	guardians        []string
	institutions     []string
	emailDomains     []string
}{
	maritalStatuses: []string{"single", "married", "divorced", "widowed"},
	complexions:     []string{"fair", "medium", "dark"},
	bloodGroups:     []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"},
	divisions:       []string{"Dhaka", "Chittagong", "Rajshahi", "Khulna", "Barisal", "Sylhet", "Rangpur", "Mymensingh"},
	districts: map[string][]string{
		"Dhaka":      {"Dhaka", "Gazipur", "Narayanganj", "Manikganj", "Munshiganj", "Faridpur"},
		"Chittagong": {"Chittagong", "Cox's Bazar", "Comilla", "Noakhali", "Feni", "Chandpur"},
		"Rajshahi":   {"Rajshahi", "Bogra", "Pabna", "Sirajganj", "Natore"},
		"Khulna":     {"Khulna", "Jessore", "Satkhira", "Bagerhat", "Narail", "Magura"},
		"Barisal":    {"Barisal", "Patuakhali", "Pirojpur", "Jhalokati", "Barguna", "Bhola"},
		"Sylhet":     {"Sylhet", "Moulvibazar", "Habiganj", "Sunamganj"},
		"Rangpur":    {"Rangpur", "Dinajpur", "Thakurgaon", "Panchagarh", "Kurigram", "Lalmonirhat"},
		"Mymensingh": {"Mymensingh", "Jamalpur", "Netrokona", "Sherpur"},
	},
	heights: []string{
		`4'10"`, `4'11"`, `5'0"`, `5'1"`, `5'2"`, `5'3"`, `5'4"`, `5'5"`,
		`5'6"`, `5'7"`, `5'8"`, `5'9"`, `5'10"`, `5'11"`, `6'0"`, `6'1"`,
	},
	degrees: []string{
		"SSC", "HSC", "Diploma", "Bachelor's", "Master's", "PhD",
		"MBBS", "Engineering", "BBA", "MBA", "Computer Science", "Islamic Studies",
	},
	occupations:    []string{"student", "teacher", "engineer", "doctor", "business", "government", "private", "freelancer", "other"},
	familyStatuses: []string{"upper_class", "upper_middle", "middle_class", "lower_middle", "lower_class"},
	clothingStyles: []string{"islamic", "casual", "formal", "traditional"},
	yesNo:          []string{"yes", "no"},
	fiqhSchools:    []string{"hanafi", "shafi", "maliki", "hanbali", "others"},
	diseases: []string{
		"No major health issues", "None", "Healthy and fit",
		"Minor allergies", "Slight asthma", "Controlled diabetes", "High blood pressure (managed)",
	},
	hobbies: []string{
		"reading books", "sports and fitness", "traveling and exploring", "cooking new recipes",
		"gardening", "learning new technologies", "writing and blogging", "photography",
	},
	marriageThoughts: []string{
		"Looking for a practicing Muslim life partner to build a family based on Islamic values.",
		"Seeking a compatible, understanding, and supportive spouse for a lifelong journey.",
		"Ready to settle down with a righteous partner who shares similar life goals.",
	},
	qualities: []string{
		"A religious, honest, and family-oriented person with a good sense of humor.",
		"Someone who is kind, patient, respectful to elders, and has a positive outlook on life.",
		"I value intelligence, ambition, and a commitment to both deen and dunya.",
	},
	maleNames: []string{
		"Mohammed Abdullah", "Ahmed Hassan", "Omar Faruk", "Ali Rahman", "Ibrahim Khan",
		"Yusuf Ahmed", "Rashid Islam", "Tariq Mahmud", "Khalid Hasan", "Saeed Ullah",
	},
	femaleNames: []string{
		"Fatima Khatun", "Ayesha Begum", "Khadija Rahman", "Zainab Ahmed", "Maryam Khan",
		"Ruqayya Islam", "Hafsa Mahmud", "Umm Kulthum", "Safiya Hasan", "Asma Ullah",
	},
	guardians: []string{"father", "mother", "brother", "uncle", "guardian"},
	institutions: []string{
		"University of Dhaka", "BUET", "Chittagong University", "Rajshahi University",
		"Jahangirnagar University", "Islamic University", "Dhaka Medical College",
		"NSU", "BRAC University", "IUT", "Daffodil University",
	},
	emailDomains: []string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com"},
}

// BiodataGenerator produces plausible random profiles marked as test data.
type BiodataGenerator struct {
	rng *rand.Rand
	now func() time.Time
}

func NewBiodataGenerator(rng *rand.Rand, now func() time.Time) *BiodataGenerator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if now == nil {
		now = time.Now
	}
	return &BiodataGenerator{rng: rng, now: now}
}

func (g *BiodataGenerator) pick(options []string) string {
	return options[g.rng.IntN(len(options))]
}

func (g *BiodataGenerator) between(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

func (g *BiodataGenerator) Generate() models.Biodata {
	now := g.now().UTC()
	male := g.rng.IntN(2) == 0
	division := g.pick(sample.divisions)
	district := g.pick(sample.districts[division])

	name := g.pick(sample.femaleNames)
	biodataType := models.BiodataTypeFemale
	if male {
		name = g.pick(sample.maleNames)
		biodataType = models.BiodataTypeMale
	}

	permanentDivision := division
	if g.rng.Float64() > 0.7 {
		permanentDivision = g.pick(sample.divisions)
	}

	b := models.Biodata{
		ID:            uuid.NewString(),
		UserID:        "fake_user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		BiodataType:   biodataType,
		MaritalStatus: g.pick(sample.maritalStatuses),
		BirthYear:     strconv.Itoa(now.Year() - g.between(20, 50)),
		Height:        g.pick(sample.heights),
		Complexion:    g.pick(sample.complexions),
		Weight:        fmt.Sprintf("%d kg", g.between(45, 94)),
		BloodGroup:    g.pick(sample.bloodGroups),
		Nationality:   "Bangladeshi",

		PresentCountry:    "Bangladesh",
		PresentDivision:   division,
		PresentDistrict:   district,
		PresentUpazilla:   district + " Sadar",
		PermanentCountry:  "Bangladesh",
		PermanentDivision: permanentDivision,
		PermanentDistrict: district,
		PermanentUpazilla: district + " Sadar",

		HighestDegree:  g.pick(sample.degrees),
		Institution:    g.pick(sample.institutions),
		GraduationYear: g.between(2010, now.Year()),

		FatherName:       g.pick(sample.maleNames),
		IsFatherAlive:    g.pick(sample.yesNo),
		FatherProfession: g.pick(sample.occupations),
		MotherName:       g.pick(sample.femaleNames),
		IsMotherAlive:    g.pick(sample.yesNo),
		MotherProfession: "Housewife",
		FamilyStatus:     g.pick(sample.familyStatuses),
		NumberOfSiblings: g.between(0, 5),

		Clothing:          g.pick(sample.clothingStyles),
		PraysFiveTimes:    g.pick([]string{"yes", "sometimes", "trying"}),
		MahramNonMahram:   g.pick([]string{"yes", "partially", "learning"}),
		RecitesQuran:      g.pick([]string{"fluently", "with_difficulty", "learning"}),
		Fiqh:              g.pick(sample.fiqhSchools),
		Diseases:          g.pick(sample.diseases),
		DramasMoviesSongs: g.pick([]string{"no", "sometimes", "avoid"}),
		MazarBeliefs:      g.pick([]string{"shirk", "not_shirk", "unsure"}),
		Hobbies:           g.pick(sample.hobbies),

		Occupation:              g.pick(sample.occupations),
		DescriptionOfProfession: "Working in respective field",
		MonthlyIncome:           g.between(20000, 200000),

		GuardiansAgree:   g.pick(sample.yesNo),
		MarriageThoughts: g.pick(sample.marriageThoughts),

		ExpectedAge:                      fmt.Sprintf("%d-%d", g.between(20, 35), g.between(36, 45)),
		ExpectedComplexion:               g.pick(append([]string{"any"}, sample.complexions...)),
		ExpectedHeight:                   g.pick(append([]string{"any"}, sample.heights...)),
		ExpectedEducationalQualification: g.pick(sample.degrees),
		ExpectedDistrict:                 g.pick([]string{"any", district}),
		ExpectedMaritalStatus:            "single",
		ExpectedProfession:               g.pick(append([]string{"any"}, sample.occupations...)),
		ExpectedFinancialCondition:       g.pick([]string{"middle_class", "upper_middle_class", "any"}),
		ExpectedQualities:                g.pick(sample.qualities),

		ParentsKnow: g.pick(sample.yesNo),
		AllInfoTrue: "yes",

		FullName:                 name,
		GuardianMobileNumber:     fmt.Sprintf("+880%d", g.between(1000000000, 1999999999)),
		RelationshipWithGuardian: g.pick(sample.guardians),
		EmailToReceiveBiodata: fmt.Sprintf("%s%d@%s",
			strings.ReplaceAll(strings.ToLower(name), " ", "."), g.between(1, 999), g.pick(sample.emailDomains)),

		IsTestData: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if male {
		b.HasBeard = g.pick(sample.yesNo)
		if b.HasBeard == "yes" {
			b.BeardSince = fmt.Sprintf("%d years", g.between(1, 10))
		}
		b.ClothesAboveAnkles = g.pick(sample.yesNo)
		b.KeepWifeInVeil = g.pick([]string{"yes", "her_choice", "family_decision"})
		b.AllowWifeToStudy = g.pick([]string{"yes", "after_marriage", "family_decision"})
		b.AllowWifeToDoJob = g.pick([]string{"yes", "no", "depends"})
		b.LiveWithWifeAfterMarriage = g.pick([]string{"yes", "separate", "depends"})
	} else {
		b.WearNiqab = g.pick(sample.yesNo)
		if b.WearNiqab == "yes" {
			b.NiqabSince = fmt.Sprintf("%d years", g.between(1, 10))
		}
		b.WantToDoJobAfterMarriage = g.pick([]string{"yes", "no", "depends"})
		b.WantToStudyAfterMarriage = g.pick([]string{"yes", "no", "depends"})
	}
	return b
}

// SeedService injects and removes generated test profiles.
type SeedService struct {
	store     BiodataStore
	biodata   *BiodataService
	stats     *StatsService
	generator *BiodataGenerator
}

func NewSeedService(store BiodataStore, biodata *BiodataService, stats *StatsService, generator *BiodataGenerator) *SeedService {
	return &SeedService{store: store, biodata: biodata, stats: stats, generator: generator}
}

type InjectResult struct {
	Injected int `json:"injected"`
	Indexed  int `json:"indexed"`
}

// Inject stores count generated profiles and indexes them. Index failures are
// reported through the sync observers and do not fail the injection.
func (s *SeedService) Inject(ctx context.Context, count int) (*InjectResult, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}

	batch := make([]models.Biodata, 0, count)
	for i := 0; i < count; i++ {
		batch = append(batch, s.generator.Generate())
	}
	if err := s.store.InsertMany(ctx, batch); err != nil {
		return nil, err
	}
	logger.Info("Injected test biodata", "count", count)

	indexed, _ := s.biodata.IndexMany(ctx, batch)
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
	return &InjectResult{Injected: count, Indexed: indexed}, nil
}

// Cleanup removes every test profile from the store and the index.
func (s *SeedService) Cleanup(ctx context.Context) (int, error) {
	ids, err := s.store.DeleteTestData(ctx)
	if err != nil {
		return 0, err
	}
	s.biodata.RemoveMany(ctx, ids)
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
	logger.Info("Removed test biodata", "count", len(ids))
	return len(ids), nil
}

func (s *SeedService) Stats(ctx context.Context) (*models.TestDataStats, error) {
	total, err := s.store.Count(ctx, "")
	if err != nil {
		return nil, err
	}
	test, err := s.store.CountTestData(ctx)
	if err != nil {
		return nil, err
	}
	return &models.TestDataStats{Total: total, Test: test, Real: total - test}, nil
}
