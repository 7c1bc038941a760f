package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardkyer/labor-policy-assistant/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	db, err := NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema())
	return db
}

func TestUsers(t *testing.T) {
	db := newTestClient(t)

	t.Run("create and fetch", func(t *testing.T) {
		user, err := db.CreateUser("a@example.com", "hashed", "홍길동")
		require.NoError(t, err)
		assert.NotZero(t, user.ID)

		byEmail, err := db.GetUserByEmail("a@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
		assert.Equal(t, "홍길동", byEmail.FullName)
		assert.True(t, byEmail.IsActive)
	})

	t.Run("duplicate email fails", func(t *testing.T) {
		_, err := db.CreateUser("a@example.com", "hashed", "")
		assert.Error(t, err)
	})

	t.Run("missing user is ErrNotFound", func(t *testing.T) {
		_, err := db.GetUserByEmail("missing@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUserProfiles(t *testing.T) {
	db := newTestClient(t)
	user, err := db.CreateUser("p@example.com", "hashed", "")
	require.NoError(t, err)

	age := 30
	gender := "female"
	require.NoError(t, db.UpsertUserProfile(&models.UserProfile{
		UserID:    user.ID,
		Age:       &age,
		Gender:    &gender,
		Interests: map[string]string{"분야": "직업훈련"},
	}))

	p, err := db.GetUserProfile(user.ID)
	require.NoError(t, err)
	require.NotNil(t, p.Age)
	assert.Equal(t, 30, *p.Age)
	assert.Equal(t, "직업훈련", p.Interests["분야"])

	t.Run("upsert overwrites", func(t *testing.T) {
		newAge := 31
		require.NoError(t, db.UpsertUserProfile(&models.UserProfile{
			UserID: user.ID,
			Age:    &newAge,
		}))

		p, err := db.GetUserProfile(user.ID)
		require.NoError(t, err)
		assert.Equal(t, 31, *p.Age)
		assert.Nil(t, p.Gender)
	})
}

func TestGetOrCreateProfileType_ConcurrentTupleUniqueness(t *testing.T) {
	db := newTestClient(t)

	const workers = 10
	ids := make([]int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pt, err := db.GetOrCreateProfileType("청년", "여성", "구직자", false, false, "해당 없음")
			if err == nil {
				ids[i] = pt.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Equal(t, ids[0], ids[i])
	}

	types, err := db.ListProfileTypes()
	require.NoError(t, err)
	assert.Len(t, types, 1)
}

func TestProfileRecommendations(t *testing.T) {
	db := newTestClient(t)

	pt, err := db.GetOrCreateProfileType("청년", "기타", "구직자", false, false, "해당 없음")
	require.NoError(t, err)

	recs := []models.ProfileRecommendation{
		{ProfileTypeID: pt.ID, PolicyID: "p1", PolicyTitle: "정책1", PolicyContent: "내용1", PageNumber: "30", Category: "청년", RelevanceScore: 0.9, RankOrder: 1},
		{ProfileTypeID: pt.ID, PolicyID: "p2", PolicyTitle: "정책2", PolicyContent: "내용2", PageNumber: "45", Category: "기타", RelevanceScore: 0.8, RankOrder: 2},
		{ProfileTypeID: pt.ID, PolicyID: "p3", PolicyTitle: "정책3", PolicyContent: "내용3", PageNumber: "60", Category: "여성", RelevanceScore: 0.7, RankOrder: 3},
	}
	require.NoError(t, db.ReplaceProfileRecommendations(context.Background(), pt.ID, recs))

	stored, err := db.GetProfileRecommendations(pt.ID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for i, r := range stored {
		assert.Equal(t, i+1, r.RankOrder, "rows come back in rank order")
	}

	t.Run("replace drops stale rows", func(t *testing.T) {
		require.NoError(t, db.ReplaceProfileRecommendations(context.Background(), pt.ID, recs[:1]))

		stored, err := db.GetProfileRecommendations(pt.ID)
		require.NoError(t, err)
		assert.Len(t, stored, 1)
		assert.Equal(t, "p1", stored[0].PolicyID)
	})
}

func TestRecommendedPolicies(t *testing.T) {
	db := newTestClient(t)
	user, err := db.CreateUser("r@example.com", "hashed", "")
	require.NoError(t, err)

	recs := []models.RecommendedPolicy{
		{UserID: user.ID, PolicyID: "p1", PolicyTitle: "정책1", PolicyContent: "내용", PageNumber: "25", RelevanceScore: 0.95, RankOrder: 1},
		{UserID: user.ID, PolicyID: "p2", PolicyTitle: "정책2", PolicyContent: "내용", PageNumber: "33", RelevanceScore: 0.85, RankOrder: 2},
	}
	require.NoError(t, db.ReplaceRecommendedPolicies(context.Background(), user.ID, recs))

	stored, err := db.GetRecommendedPolicies(user.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "p1", stored[0].PolicyID)
	assert.Equal(t, 0.95, stored[0].RelevanceScore)
}

func TestSavedPolicies(t *testing.T) {
	db := newTestClient(t)
	user, err := db.CreateUser("s@example.com", "hashed", "")
	require.NoError(t, err)

	first, err := db.SavePolicy(user.ID, "p1")
	require.NoError(t, err)

	second, err := db.SavePolicy(user.ID, "p1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "saving twice keeps the original row")

	saved, err := db.IsPolicySaved(user.ID, "p1")
	require.NoError(t, err)
	assert.True(t, saved)

	removed, err := db.UnsavePolicy(user.ID, "p1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = db.UnsavePolicy(user.ID, "p1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPolicyChunks(t *testing.T) {
	db := newTestClient(t)

	chunk := &models.PolicyChunk{
		ID:         "chunk-1",
		PolicyID:   "p1",
		Content:    "청년 고용 정책 본문",
		PageNumber: "42",
		ChunkIndex: 0,
		Title:      "청년 고용 정책",
		Category:   "청년",
	}
	require.NoError(t, db.InsertPolicyChunk(chunk))

	chunk.Content = "수정된 본문"
	require.NoError(t, db.InsertPolicyChunk(chunk), "re-inserting the same id updates in place")
}

func TestPolicyChunkCatalog(t *testing.T) {
	db := newTestClient(t)

	seed := []models.PolicyChunk{
		{ID: "a-0", PolicyID: "p-a", Content: "청년 구직활동 지원금 안내", PageNumber: "30", ChunkIndex: 0, Title: "청년 구직활동 지원금", Category: "청년"},
		{ID: "a-1", PolicyID: "p-a", Content: "신청 절차 및 제출 서류", PageNumber: "31", ChunkIndex: 1, Title: "청년 구직활동 지원금", Category: "청년"},
		{ID: "b-0", PolicyID: "p-b", Content: "고령자 계속고용장려금", PageNumber: "50", ChunkIndex: 0, Title: "고령자 계속고용장려금", Category: "고령자"},
		{ID: "c-0", PolicyID: "p-c", Content: "여성 경력단절 재취업 프로그램", PageNumber: "70", ChunkIndex: 0, Title: "여성 재취업 지원", Category: "여성"},
	}
	for i := range seed {
		require.NoError(t, db.InsertPolicyChunk(&seed[i]))
	}

	t.Run("lists everything in document order", func(t *testing.T) {
		chunks, err := db.ListPolicyChunks("", 20, 0)
		require.NoError(t, err)
		require.Len(t, chunks, 4)
		assert.Equal(t, "a-0", chunks[0].ID)
		assert.Equal(t, "a-1", chunks[1].ID)
	})

	t.Run("category filter", func(t *testing.T) {
		chunks, err := db.ListPolicyChunks("청년", 20, 0)
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		for _, ch := range chunks {
			assert.Equal(t, "청년", ch.Category)
		}
	})

	t.Run("limit and offset page through", func(t *testing.T) {
		first, err := db.ListPolicyChunks("", 2, 0)
		require.NoError(t, err)
		require.Len(t, first, 2)

		rest, err := db.ListPolicyChunks("", 2, 2)
		require.NoError(t, err)
		require.Len(t, rest, 2)
		assert.NotEqual(t, first[0].ID, rest[0].ID)
	})

	t.Run("search matches title and content", func(t *testing.T) {
		byTitle, err := db.SearchPolicyChunks("재취업", 20)
		require.NoError(t, err)
		require.Len(t, byTitle, 1)
		assert.Equal(t, "c-0", byTitle[0].ID)

		byContent, err := db.SearchPolicyChunks("제출 서류", 20)
		require.NoError(t, err)
		require.Len(t, byContent, 1)
		assert.Equal(t, "a-1", byContent[0].ID)
	})

	t.Run("no match is an empty result", func(t *testing.T) {
		chunks, err := db.SearchPolicyChunks("창업", 20)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})
}
