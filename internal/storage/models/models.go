package models

import "time"

type User struct {
	ID             int64
	Email          string
	HashedPassword string
	FullName       string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserProfile is the raw, user-edited profile. All categorical fields are
// optional; ProfileTypeID tracks the canonical bucket the profile currently
// maps to and is recomputed on every edit.
type UserProfile struct {
	ID               int64
	UserID           int64
	Age              *int
	Gender           *string
	EmploymentStatus *string
	Region           *string
	IsDisabled       bool
	IsForeign        bool
	FamilyStatus     *string
	Interests        map[string]string
	ProfileTypeID    *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ProfileType is an append-only dimension row. The 6-tuple is unique and
// rows are never updated or deleted once created.
type ProfileType struct {
	ID               int64
	AgeGroup         string
	Gender           string
	EmploymentStatus string
	IsDisabled       bool
	IsForeign        bool
	FamilyStatus     string
	CreatedAt        time.Time
}

// ProfileRecommendation is a shared-tier row, precomputed per ProfileType.
type ProfileRecommendation struct {
	ID             int64
	ProfileTypeID  int64
	PolicyID       string
	PolicyTitle    string
	PolicyContent  string
	PageNumber     string
	Category       string
	RelevanceScore float64
	RankOrder      int
	CreatedAt      time.Time
}

// RecommendedPolicy is a personal-tier row, computed per user.
type RecommendedPolicy struct {
	ID             int64
	UserID         int64
	PolicyID       string
	PolicyTitle    string
	PolicyContent  string
	PageNumber     string
	Category       string
	RelevanceScore float64
	RankOrder      int
	CreatedAt      time.Time
}

type SavedPolicy struct {
	ID        int64
	UserID    int64
	PolicyID  string
	CreatedAt time.Time
}

// PolicyChunk mirrors a vector-index entry for bookkeeping; the index itself
// is the source of truth for retrieval.
type PolicyChunk struct {
	ID         string
	PolicyID   string
	Content    string
	PageNumber string
	ChunkIndex int
	Title      string
	Category   string
	CreatedAt  time.Time
}
