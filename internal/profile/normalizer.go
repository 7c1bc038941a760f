// Package profile maps raw, partially-filled user profiles onto the
// canonical profile-type dimension used as the shared recommendation key.
package profile

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/ardkyer/labor-policy-assistant/internal/storage/models"
	"github.com/ardkyer/labor-policy-assistant/internal/storage/sqlite"
	"github.com/ardkyer/labor-policy-assistant/pkg/logger"
)

// RawProfile carries the user-supplied fields before normalization. Age may
// arrive as a number or as a coded bucket ("youth", "middle", "senior").
type RawProfile struct {
	Age              *int
	AgeGroup         string
	Gender           string
	EmploymentStatus string
	Region           string
	IsDisabled       bool
	IsForeign        bool
	FamilyStatus     string
	Interests        map[string]string
}

// CanonicalTuple is the unique 6-tuple identifying a ProfileType.
type CanonicalTuple struct {
	AgeGroup         string
	Gender           string
	EmploymentStatus string
	IsDisabled       bool
	IsForeign        bool
	FamilyStatus     string
}

// Canonical labels, matching the policy corpus language.
const (
	AgeGroupYouth  = "청년"
	AgeGroupMiddle = "중장년"
	AgeGroupSenior = "고령자"

	GenderMale   = "남성"
	GenderFemale = "여성"
	GenderOther  = "기타"

	EmploymentEmployed   = "재직자"
	EmploymentUnemployed = "구직자"
	EmploymentBusiness   = "자영업자"
	EmploymentStudent    = "학생"

	FamilyParent       = "영유아 자녀 있음"
	FamilySingleParent = "한부모"
	FamilyCaregiver    = "주 양육자"
	FamilyNone         = "해당 없음"
)

var genderLabels = map[string]string{
	"male":   GenderMale,
	"female": GenderFemale,
	"other":  GenderOther,
}

var employmentLabels = map[string]string{
	"employed":   EmploymentEmployed,
	"unemployed": EmploymentUnemployed,
	"business":   EmploymentBusiness,
	"student":    EmploymentStudent,
}

var familyLabels = map[string]string{
	"parent":        FamilyParent,
	"single_parent": FamilySingleParent,
	"caregiver":     FamilyCaregiver,
	"none":          FamilyNone,
}

var ageGroupLabels = map[string]string{
	"youth":  AgeGroupYouth,
	"middle": AgeGroupMiddle,
	"senior": AgeGroupSenior,
}

// Discretize is total: every raw profile, including an entirely empty one,
// resolves to exactly one canonical tuple. Missing age defaults to the youth
// group so that a profile always lands in a bucket.
func Discretize(raw RawProfile) CanonicalTuple {
	return CanonicalTuple{
		AgeGroup:         discretizeAge(raw),
		Gender:           labelOrDefault(genderLabels, raw.Gender, GenderOther),
		EmploymentStatus: labelOrDefault(employmentLabels, raw.EmploymentStatus, EmploymentUnemployed),
		IsDisabled:       raw.IsDisabled,
		IsForeign:        raw.IsForeign,
		FamilyStatus:     labelOrDefault(familyLabels, raw.FamilyStatus, FamilyNone),
	}
}

func discretizeAge(raw RawProfile) string {
	if label, ok := ageGroupLabels[raw.AgeGroup]; ok {
		return label
	}
	if raw.Age != nil {
		switch {
		case *raw.Age < 35:
			return AgeGroupYouth
		case *raw.Age < 65:
			return AgeGroupMiddle
		default:
			return AgeGroupSenior
		}
	}
	return AgeGroupYouth
}

func labelOrDefault(table map[string]string, code, fallback string) string {
	if label, ok := table[code]; ok {
		return label
	}
	return fallback
}

// Representative reverses Discretize for the shared tier: it synthesizes a
// concrete profile that falls into the given bucket, used when generating
// recommendations for a ProfileType with no real user attached.
func Representative(t models.ProfileType) RawProfile {
	age := 25
	switch t.AgeGroup {
	case AgeGroupMiddle:
		age = 45
	case AgeGroupSenior:
		age = 65
	}

	return RawProfile{
		Age:              &age,
		Gender:           codeFor(genderLabels, t.Gender, "other"),
		EmploymentStatus: codeFor(employmentLabels, t.EmploymentStatus, "unemployed"),
		IsDisabled:       t.IsDisabled,
		IsForeign:        t.IsForeign,
		FamilyStatus:     codeFor(familyLabels, t.FamilyStatus, "none"),
	}
}

func codeFor(table map[string]string, label, fallback string) string {
	for code, l := range table {
		if l == label {
			return code
		}
	}
	return fallback
}

// Resolver persists canonical tuples as ProfileType rows.
type Resolver struct {
	db *sqlite.Client
}

func NewResolver(db *sqlite.Client) *Resolver {
	return &Resolver{db: db}
}

// Resolve discretizes the raw profile and insert-or-fetches its ProfileType
// row. It never fails on a duplicate tuple: the unique constraint resolves
// concurrent first-use and the existing row is returned.
func (r *Resolver) Resolve(raw RawProfile) (*models.ProfileType, error) {
	tuple := Discretize(raw)

	pt, err := r.db.GetOrCreateProfileType(
		tuple.AgeGroup,
		tuple.Gender,
		tuple.EmploymentStatus,
		tuple.IsDisabled,
		tuple.IsForeign,
		tuple.FamilyStatus,
	)
	if err != nil {
		return nil, err
	}

	logger.Debug("Profile resolved",
		zap.Int64("profile_type_id", pt.ID),
		zap.String("age_group", tuple.AgeGroup),
		zap.String("employment", tuple.EmploymentStatus),
	)
	return pt, nil
}

// FromStored converts a persisted profile row back into a RawProfile.
func FromStored(p *models.UserProfile) RawProfile {
	raw := RawProfile{
		Age:        p.Age,
		IsDisabled: p.IsDisabled,
		IsForeign:  p.IsForeign,
		Interests:  p.Interests,
	}
	if p.Gender != nil {
		raw.Gender = *p.Gender
	}
	if p.EmploymentStatus != nil {
		raw.EmploymentStatus = *p.EmploymentStatus
	}
	if p.Region != nil {
		raw.Region = *p.Region
	}
	if p.FamilyStatus != nil {
		raw.FamilyStatus = *p.FamilyStatus
	}
	return raw
}

// AgeString renders the age for prompt text, "정보 없음" when absent.
func (r RawProfile) AgeString() string {
	if r.Age != nil {
		return strconv.Itoa(*r.Age)
	}
	if r.AgeGroup != "" {
		return r.AgeGroup
	}
	return "정보 없음"
}
