package recommend

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardkyer/labor-policy-assistant/internal/profile"
	"github.com/ardkyer/labor-policy-assistant/internal/storage/models"
	"github.com/ardkyer/labor-policy-assistant/internal/storage/sqlite"
	"github.com/ardkyer/labor-policy-assistant/internal/vector"
)

type fakeRecommender struct {
	recs  []Recommendation
	err   error
	calls int
}

func (f *fakeRecommender) Recommend(ctx context.Context, raw profile.RawProfile, topK int) ([]Recommendation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.recs) > topK {
		return f.recs[:topK], nil
	}
	return f.recs, nil
}

func fakeRecs(n int) []Recommendation {
	recs := make([]Recommendation, n)
	for i := range recs {
		recs[i] = Recommendation{
			PolicyID:   fmt.Sprintf("policy-%d", i),
			Title:      fmt.Sprintf("정책 %d", i),
			Content:    "본문",
			PageNumber: "40",
			Category:   "청년",
			Score:      1 - float32(i)*0.1,
			Rank:       i + 1,
		}
	}
	return recs
}

func newServiceDB(t *testing.T) *sqlite.Client {
	t.Helper()

	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema())
	return db
}

func seedProfileType(t *testing.T, db *sqlite.Client) int64 {
	t.Helper()

	pt, err := db.GetOrCreateProfileType(
		profile.AgeGroupYouth, profile.GenderOther, profile.EmploymentUnemployed,
		false, false, profile.FamilyNone,
	)
	require.NoError(t, err)
	return pt.ID
}

func seedUserWithProfile(t *testing.T, db *sqlite.Client, profileTypeID int64) int64 {
	t.Helper()

	user, err := db.CreateUser("worker@example.com", "hash", "근로자")
	require.NoError(t, err)

	age := 25
	require.NoError(t, db.UpsertUserProfile(&models.UserProfile{
		UserID:        user.ID,
		Age:           &age,
		ProfileTypeID: &profileTypeID,
	}))
	return user.ID
}

func TestService_SharedTier(t *testing.T) {
	t.Run("first access runs the pipeline and persists", func(t *testing.T) {
		db := newServiceDB(t)
		ptID := seedProfileType(t, db)
		engine := &fakeRecommender{recs: fakeRecs(5)}
		svc := NewService(db, engine, 5)

		recs, err := svc.GetOrCreateShared(context.Background(), ptID)
		require.NoError(t, err)
		assert.Len(t, recs, 5)
		assert.Equal(t, 1, engine.calls)

		for i, r := range recs {
			assert.Equal(t, i+1, r.RankOrder)
		}
	})

	t.Run("second access is a cache hit with no engine calls", func(t *testing.T) {
		db := newServiceDB(t)
		ptID := seedProfileType(t, db)
		engine := &fakeRecommender{recs: fakeRecs(5)}
		svc := NewService(db, engine, 5)

		_, err := svc.GetOrCreateShared(context.Background(), ptID)
		require.NoError(t, err)

		recs, err := svc.GetOrCreateShared(context.Background(), ptID)
		require.NoError(t, err)
		assert.Len(t, recs, 5)
		assert.Equal(t, 1, engine.calls, "stored results must be served without re-running the pipeline")
	})

	t.Run("refresh replaces the whole set", func(t *testing.T) {
		db := newServiceDB(t)
		ptID := seedProfileType(t, db)
		engine := &fakeRecommender{recs: fakeRecs(6)}
		svc := NewService(db, engine, 6)

		_, err := svc.GetOrCreateShared(context.Background(), ptID)
		require.NoError(t, err)

		engine.recs = fakeRecs(5)
		recs, err := svc.RefreshShared(context.Background(), ptID)
		require.NoError(t, err)
		assert.Len(t, recs, 5, "stale rows beyond the new set must be gone")
	})

	t.Run("pipeline failure leaves stored rows untouched", func(t *testing.T) {
		db := newServiceDB(t)
		ptID := seedProfileType(t, db)
		engine := &fakeRecommender{recs: fakeRecs(5)}
		svc := NewService(db, engine, 5)

		_, err := svc.GetOrCreateShared(context.Background(), ptID)
		require.NoError(t, err)

		engine.err = fmt.Errorf("%w: index down", ErrRetrieval)
		_, err = svc.RefreshShared(context.Background(), ptID)
		assert.ErrorIs(t, err, ErrRetrieval)

		stored, err := db.GetProfileRecommendations(ptID)
		require.NoError(t, err)
		assert.Len(t, stored, 5)
	})

	t.Run("unknown profile type", func(t *testing.T) {
		db := newServiceDB(t)
		svc := NewService(db, &fakeRecommender{}, 5)

		_, err := svc.RefreshShared(context.Background(), 999)
		assert.ErrorIs(t, err, sqlite.ErrNotFound)
	})
}

func TestService_PersonalTier(t *testing.T) {
	t.Run("no profile yields ErrNoProfile", func(t *testing.T) {
		db := newServiceDB(t)
		user, err := db.CreateUser("new@example.com", "hash", "")
		require.NoError(t, err)

		svc := NewService(db, &fakeRecommender{recs: fakeRecs(5)}, 5)
		_, err = svc.GetOrCreatePersonal(context.Background(), user.ID)
		assert.ErrorIs(t, err, ErrNoProfile)
	})

	t.Run("first access generates and persists", func(t *testing.T) {
		db := newServiceDB(t)
		ptID := seedProfileType(t, db)
		userID := seedUserWithProfile(t, db, ptID)
		engine := &fakeRecommender{recs: fakeRecs(5)}
		svc := NewService(db, engine, 5)

		recs, err := svc.GetOrCreatePersonal(context.Background(), userID)
		require.NoError(t, err)
		assert.Len(t, recs, 5)
		assert.Equal(t, 1, engine.calls)

		again, err := svc.GetOrCreatePersonal(context.Background(), userID)
		require.NoError(t, err)
		assert.Len(t, again, 5)
		assert.Equal(t, 1, engine.calls)
	})

	t.Run("chunks of one document persist as a single row", func(t *testing.T) {
		db := newServiceDB(t)
		ptID := seedProfileType(t, db)
		userID := seedUserWithProfile(t, db, ptID)

		// Two surviving chunks share a policy id; persisting must not trip
		// the unique (user_id, policy_id) constraint.
		index := &fakeIndex{matches: []vector.Match{
			{ID: "c1", Score: 0.9, Page: "30", Text: "청년 지원 정책", PolicyID: "policy-A"},
			{ID: "c2", Score: 0.8, Page: "35", Text: "청년 지원 정책", PolicyID: "policy-A"},
			{ID: "c3", Score: 0.7, Page: "40", Text: "여성 지원 정책", PolicyID: "policy-B"},
		}}
		engine := NewEngine(
			&fakeSynthesizer{query: "청년 지원"},
			&fakeEmbedder{embedding: []float32{0.1}},
			index, 3, 20,
		)
		svc := NewService(db, engine, 5)

		recs, err := svc.GetOrCreatePersonal(context.Background(), userID)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "policy-A", recs[0].PolicyID)
		assert.Equal(t, "policy-B", recs[1].PolicyID)
	})

	t.Run("pipeline failure on first access persists nothing", func(t *testing.T) {
		db := newServiceDB(t)
		ptID := seedProfileType(t, db)
		userID := seedUserWithProfile(t, db, ptID)
		engine := &fakeRecommender{err: fmt.Errorf("%w: index down", ErrRetrieval)}
		svc := NewService(db, engine, 5)

		_, err := svc.GetOrCreatePersonal(context.Background(), userID)
		assert.ErrorIs(t, err, ErrRetrieval)

		stored, err := db.GetRecommendedPolicies(userID)
		require.NoError(t, err)
		assert.Empty(t, stored)
	})

	t.Run("refresh replaces wholesale", func(t *testing.T) {
		db := newServiceDB(t)
		ptID := seedProfileType(t, db)
		userID := seedUserWithProfile(t, db, ptID)
		engine := &fakeRecommender{recs: fakeRecs(6)}
		svc := NewService(db, engine, 6)

		_, err := svc.GetOrCreatePersonal(context.Background(), userID)
		require.NoError(t, err)

		engine.recs = fakeRecs(5)
		recs, err := svc.RefreshPersonal(context.Background(), userID)
		require.NoError(t, err)
		assert.Len(t, recs, 5)
	})
}

func TestService_SavedPolicies(t *testing.T) {
	db := newServiceDB(t)
	user, err := db.CreateUser("saver@example.com", "hash", "")
	require.NoError(t, err)
	svc := NewService(db, &fakeRecommender{}, 5)

	t.Run("save is idempotent", func(t *testing.T) {
		first, err := svc.SavePolicy(user.ID, "policy-1")
		require.NoError(t, err)

		second, err := svc.SavePolicy(user.ID, "policy-1")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		saved, err := svc.ListSavedPolicies(user.ID)
		require.NoError(t, err)
		assert.Len(t, saved, 1)
	})

	t.Run("unsave reports whether a row existed", func(t *testing.T) {
		removed, err := svc.UnsavePolicy(user.ID, "policy-1")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = svc.UnsavePolicy(user.ID, "policy-1")
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("is-saved check", func(t *testing.T) {
		saved, err := svc.IsPolicySaved(user.ID, "policy-2")
		require.NoError(t, err)
		assert.False(t, saved)

		_, err = svc.SavePolicy(user.ID, "policy-2")
		require.NoError(t, err)

		saved, err = svc.IsPolicySaved(user.ID, "policy-2")
		require.NoError(t, err)
		assert.True(t, saved)
	})
}
