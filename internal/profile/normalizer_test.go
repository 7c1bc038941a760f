package profile

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardkyer/labor-policy-assistant/internal/storage/models"
	"github.com/ardkyer/labor-policy-assistant/internal/storage/sqlite"
)

func intPtr(v int) *int {
	return &v
}

func TestDiscretize_AgeThresholds(t *testing.T) {
	cases := []struct {
		name string
		age  int
		want string
	}{
		{"under 35 is youth", 34, AgeGroupYouth},
		{"35 is middle", 35, AgeGroupMiddle},
		{"64 is middle", 64, AgeGroupMiddle},
		{"65 is senior", 65, AgeGroupSenior},
		{"22 is youth", 22, AgeGroupYouth},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tuple := Discretize(RawProfile{Age: intPtr(tc.age)})
			assert.Equal(t, tc.want, tuple.AgeGroup)
		})
	}
}

func TestDiscretize_CodedAgeGroupWinsOverNumericAge(t *testing.T) {
	tuple := Discretize(RawProfile{Age: intPtr(70), AgeGroup: "youth"})
	assert.Equal(t, AgeGroupYouth, tuple.AgeGroup)
}

func TestDiscretize_IsTotal(t *testing.T) {
	t.Run("empty profile gets all defaults", func(t *testing.T) {
		tuple := Discretize(RawProfile{})
		assert.Equal(t, AgeGroupYouth, tuple.AgeGroup)
		assert.Equal(t, GenderOther, tuple.Gender)
		assert.Equal(t, EmploymentUnemployed, tuple.EmploymentStatus)
		assert.Equal(t, FamilyNone, tuple.FamilyStatus)
		assert.False(t, tuple.IsDisabled)
		assert.False(t, tuple.IsForeign)
	})

	t.Run("unknown codes fall back to defaults", func(t *testing.T) {
		tuple := Discretize(RawProfile{
			Gender:           "nonsense",
			EmploymentStatus: "whatever",
			FamilyStatus:     "???",
		})
		assert.Equal(t, GenderOther, tuple.Gender)
		assert.Equal(t, EmploymentUnemployed, tuple.EmploymentStatus)
		assert.Equal(t, FamilyNone, tuple.FamilyStatus)
	})
}

func TestDiscretize_EquivalentProfilesShareTuple(t *testing.T) {
	a := Discretize(RawProfile{
		Age:              intPtr(22),
		Gender:           "female",
		EmploymentStatus: "unemployed",
	})
	b := Discretize(RawProfile{
		AgeGroup:         "youth",
		Gender:           "female",
		EmploymentStatus: "unemployed",
		Region:           "서울",
		Interests:        map[string]string{"주제": "취업"},
	})

	assert.Equal(t, a, b, "region and interests must not affect the bucket")
}

func TestDiscretize_Labels(t *testing.T) {
	tuple := Discretize(RawProfile{
		Age:              intPtr(40),
		Gender:           "male",
		EmploymentStatus: "employed",
		FamilyStatus:     "single_parent",
		IsDisabled:       true,
		IsForeign:        true,
	})

	assert.Equal(t, AgeGroupMiddle, tuple.AgeGroup)
	assert.Equal(t, GenderMale, tuple.Gender)
	assert.Equal(t, EmploymentEmployed, tuple.EmploymentStatus)
	assert.Equal(t, FamilySingleParent, tuple.FamilyStatus)
	assert.True(t, tuple.IsDisabled)
	assert.True(t, tuple.IsForeign)
}

func TestRepresentative_RoundTripsThroughDiscretize(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(db)

	raw := RawProfile{
		Age:              intPtr(67),
		Gender:           "female",
		EmploymentStatus: "business",
		FamilyStatus:     "caregiver",
		IsDisabled:       true,
	}

	pt, err := resolver.Resolve(raw)
	require.NoError(t, err)

	rep := Representative(*pt)
	again := Discretize(rep)

	assert.Equal(t, Discretize(raw), again, "representative profile must land back in the same bucket")
}

func TestResolver_ConcurrentResolveIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	resolver := NewResolver(db)

	raw := RawProfile{Age: intPtr(28), Gender: "male", EmploymentStatus: "student"}

	const workers = 8
	ids := make([]int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pt, err := resolver.Resolve(raw)
			if err == nil {
				ids[i] = pt.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Equal(t, ids[0], ids[i], "all resolvers must see one row")
	}

	types, err := db.ListProfileTypes()
	require.NoError(t, err)
	assert.Len(t, types, 1)
}

func TestFromStored_NilFields(t *testing.T) {
	raw := FromStored(&models.UserProfile{UserID: 1})

	assert.Nil(t, raw.Age)
	assert.Empty(t, raw.Gender)
	assert.Equal(t, "정보 없음", raw.AgeString())
}

func newTestDB(t *testing.T) *sqlite.Client {
	t.Helper()

	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema())
	return db
}
