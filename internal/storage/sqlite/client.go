package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ardkyer/labor-policy-assistant/internal/storage/models"
	"github.com/ardkyer/labor-policy-assistant/pkg/logger"
)

// ErrNotFound is returned when a required row does not exist.
var ErrNotFound = errors.New("not found")

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE NOT NULL,
		hashed_password TEXT NOT NULL,
		full_name TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS profile_types (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		age_group TEXT NOT NULL,
		gender TEXT NOT NULL,
		employment_status TEXT NOT NULL,
		is_disabled INTEGER NOT NULL,
		is_foreign INTEGER NOT NULL,
		family_status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE(age_group, gender, employment_status, is_disabled, is_foreign, family_status)
	);

	CREATE TABLE IF NOT EXISTS user_profiles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER UNIQUE NOT NULL,
		age INTEGER,
		gender TEXT,
		employment_status TEXT,
		region TEXT,
		is_disabled INTEGER NOT NULL DEFAULT 0,
		is_foreign INTEGER NOT NULL DEFAULT 0,
		family_status TEXT,
		interests TEXT,
		profile_type_id INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (profile_type_id) REFERENCES profile_types(id)
	);

	CREATE TABLE IF NOT EXISTS profile_recommendations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		profile_type_id INTEGER NOT NULL,
		policy_id TEXT NOT NULL,
		policy_title TEXT NOT NULL,
		policy_content TEXT NOT NULL,
		page_number TEXT,
		category TEXT,
		relevance_score REAL NOT NULL,
		rank_order INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (profile_type_id) REFERENCES profile_types(id) ON DELETE CASCADE,
		UNIQUE(profile_type_id, rank_order)
	);
	CREATE INDEX IF NOT EXISTS idx_profile_recs_type ON profile_recommendations(profile_type_id);

	CREATE TABLE IF NOT EXISTS recommended_policies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		policy_id TEXT NOT NULL,
		policy_title TEXT NOT NULL,
		policy_content TEXT NOT NULL,
		page_number TEXT,
		category TEXT,
		relevance_score REAL NOT NULL,
		rank_order INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		UNIQUE(user_id, policy_id)
	);
	CREATE INDEX IF NOT EXISTS idx_recommended_user ON recommended_policies(user_id);

	CREATE TABLE IF NOT EXISTS saved_policies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		policy_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		UNIQUE(user_id, policy_id)
	);
	CREATE INDEX IF NOT EXISTS idx_saved_user ON saved_policies(user_id);

	CREATE TABLE IF NOT EXISTS policy_chunks (
		id TEXT PRIMARY KEY,
		policy_id TEXT,
		content TEXT NOT NULL,
		page_number TEXT,
		chunk_index INTEGER,
		title TEXT,
		category TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_policy ON policy_chunks(policy_id);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) CreateUser(email, hashedPassword, fullName string) (*models.User, error) {
	now := time.Now()
	res, err := c.db.Exec(
		`INSERT INTO users (email, hashed_password, full_name, is_active, created_at, updated_at) VALUES (?, ?, ?, 1, ?, ?)`,
		email, hashedPassword, fullName, now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}

	return &models.User{
		ID:        id,
		Email:     email,
		FullName:  fullName,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (c *Client) GetUserByEmail(email string) (*models.User, error) {
	return c.scanUser(c.db.QueryRow(
		`SELECT id, email, hashed_password, full_name, is_active, created_at, updated_at FROM users WHERE email = ?`, email,
	))
}

func (c *Client) GetUserByID(id int64) (*models.User, error) {
	return c.scanUser(c.db.QueryRow(
		`SELECT id, email, hashed_password, full_name, is_active, created_at, updated_at FROM users WHERE id = ?`, id,
	))
}

func (c *Client) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var fullName sql.NullString
	var isActive int
	var createdAt, updatedAt int64

	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &fullName, &isActive, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.FullName = fullName.String
	u.IsActive = isActive != 0
	u.CreatedAt = time.Unix(createdAt, 0)
	u.UpdatedAt = time.Unix(updatedAt, 0)
	return &u, nil
}

// UpsertUserProfile creates the profile on first update and overwrites it
// afterwards; one profile per user.
func (c *Client) UpsertUserProfile(p *models.UserProfile) error {
	interestsJSON, err := json.Marshal(p.Interests)
	if err != nil {
		return fmt.Errorf("failed to marshal interests: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO user_profiles (user_id, age, gender, employment_status, region, is_disabled, is_foreign, family_status, interests, profile_type_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			age = excluded.age,
			gender = excluded.gender,
			employment_status = excluded.employment_status,
			region = excluded.region,
			is_disabled = excluded.is_disabled,
			is_foreign = excluded.is_foreign,
			family_status = excluded.family_status,
			interests = excluded.interests,
			profile_type_id = excluded.profile_type_id,
			updated_at = excluded.updated_at
	`

	_, err = c.db.Exec(
		query,
		p.UserID,
		nullableInt(p.Age),
		nullableString(p.Gender),
		nullableString(p.EmploymentStatus),
		nullableString(p.Region),
		boolToInt(p.IsDisabled),
		boolToInt(p.IsForeign),
		nullableString(p.FamilyStatus),
		string(interestsJSON),
		p.ProfileTypeID,
		now.Unix(),
		now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user profile: %w", err)
	}

	logger.Debug("User profile upserted", zap.Int64("user_id", p.UserID))
	return nil
}

func (c *Client) GetUserProfile(userID int64) (*models.UserProfile, error) {
	query := `
		SELECT id, user_id, age, gender, employment_status, region, is_disabled, is_foreign, family_status, interests, profile_type_id, created_at, updated_at
		FROM user_profiles WHERE user_id = ?
	`

	var p models.UserProfile
	var age sql.NullInt64
	var gender, employment, region, family, interests sql.NullString
	var isDisabled, isForeign int
	var profileTypeID sql.NullInt64
	var createdAt, updatedAt int64

	err := c.db.QueryRow(query, userID).Scan(
		&p.ID, &p.UserID, &age, &gender, &employment, &region,
		&isDisabled, &isForeign, &family, &interests, &profileTypeID,
		&createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	if age.Valid {
		v := int(age.Int64)
		p.Age = &v
	}
	p.Gender = stringPtr(gender)
	p.EmploymentStatus = stringPtr(employment)
	p.Region = stringPtr(region)
	p.FamilyStatus = stringPtr(family)
	p.IsDisabled = isDisabled != 0
	p.IsForeign = isForeign != 0
	if profileTypeID.Valid {
		p.ProfileTypeID = &profileTypeID.Int64
	}
	if interests.Valid && interests.String != "" {
		json.Unmarshal([]byte(interests.String), &p.Interests)
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)

	return &p, nil
}

// GetOrCreateProfileType resolves a canonical 6-tuple to its dimension row,
/// inserting it on first sight. The unique index is the serialization point:
// a losing concurrent insert falls through to the re-read.
func (c *Client) GetOrCreateProfileType(ageGroup, gender, employmentStatus string, isDisabled, isForeign bool, familyStatus string) (*models.ProfileType, error) {
	_, err := c.db.Exec(
		`INSERT INTO profile_types (age_group, gender, employment_status, is_disabled, is_foreign, family_status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(age_group, gender, employment_status, is_disabled, is_foreign, family_status) DO NOTHING`,
		ageGroup, gender, employmentStatus, boolToInt(isDisabled), boolToInt(isForeign), familyStatus, time.Now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert profile type: %w", err)
	}

	var t models.ProfileType
	var disabled, foreign int
	var createdAt int64
	err = c.db.QueryRow(
		`SELECT id, age_group, gender, employment_status, is_disabled, is_foreign, family_status, created_at
		 FROM profile_types
		 WHERE age_group = ? AND gender = ? AND employment_status = ? AND is_disabled = ? AND is_foreign = ? AND family_status = ?`,
		ageGroup, gender, employmentStatus, boolToInt(isDisabled), boolToInt(isForeign), familyStatus,
	).Scan(&t.ID, &t.AgeGroup, &t.Gender, &t.EmploymentStatus, &disabled, &foreign, &t.FamilyStatus, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile type: %w", err)
	}

	t.IsDisabled = disabled != 0
	t.IsForeign = foreign != 0
	t.CreatedAt = time.Unix(createdAt, 0)
	return &t, nil
}

func (c *Client) GetProfileType(id int64) (*models.ProfileType, error) {
	var t models.ProfileType
	var disabled, foreign int
	var createdAt int64
	err := c.db.QueryRow(
		`SELECT id, age_group, gender, employment_status, is_disabled, is_foreign, family_status, created_at FROM profile_types WHERE id = ?`, id,
	).Scan(&t.ID, &t.AgeGroup, &t.Gender, &t.EmploymentStatus, &disabled, &foreign, &t.FamilyStatus, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile type: %w", err)
	}

	t.IsDisabled = disabled != 0
	t.IsForeign = foreign != 0
	t.CreatedAt = time.Unix(createdAt, 0)
	return &t, nil
}

func (c *Client) ListProfileTypes() ([]models.ProfileType, error) {
	rows, err := c.db.Query(
		`SELECT id, age_group, gender, employment_status, is_disabled, is_foreign, family_status, created_at FROM profile_types ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profile types: %w", err)
	}
	defer rows.Close()

	var types []models.ProfileType
	for rows.Next() {
		var t models.ProfileType
		var disabled, foreign int
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.AgeGroup, &t.Gender, &t.EmploymentStatus, &disabled, &foreign, &t.FamilyStatus, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile type: %w", err)
		}
		t.IsDisabled = disabled != 0
		t.IsForeign = foreign != 0
		t.CreatedAt = time.Unix(createdAt, 0)
		types = append(types, t)
	}

	return types, rows.Err()
}

func (c *Client) GetProfileRecommendations(profileTypeID int64) ([]models.ProfileRecommendation, error) {
	rows, err := c.db.Query(
		`SELECT id, profile_type_id, policy_id, policy_title, policy_content, page_number, category, relevance_score, rank_order, created_at
		 FROM profile_recommendations WHERE profile_type_id = ? ORDER BY rank_order`,
		profileTypeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile recommendations: %w", err)
	}
	defer rows.Close()

	var recs []models.ProfileRecommendation
	for rows.Next() {
		var r models.ProfileRecommendation
		var page, category sql.NullString
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.ProfileTypeID, &r.PolicyID, &r.PolicyTitle, &r.PolicyContent, &page, &category, &r.RelevanceScore, &r.RankOrder, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		r.PageNumber = page.String
		r.Category = category.String
		r.CreatedAt = time.Unix(createdAt, 0)
		recs = append(recs, r)
	}

	return recs, rows.Err()
}

// ReplaceProfileRecommendations swaps the whole shared-tier row set for a
// profile type in one transaction. Readers see either the old or the new set.
func (c *Client) ReplaceProfileRecommendations(ctx context.Context, profileTypeID int64, recs []models.ProfileRecommendation) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM profile_recommendations WHERE profile_type_id = ?`, profileTypeID); err != nil {
		return fmt.Errorf("failed to delete old recommendations: %w", err)
	}

	now := time.Now().Unix()
	for _, r := range recs {
		_, err := tx.Exec(
			`INSERT INTO profile_recommendations (profile_type_id, policy_id, policy_title, policy_content, page_number, category, relevance_score, rank_order, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			profileTypeID, r.PolicyID, r.PolicyTitle, r.PolicyContent, r.PageNumber, r.Category, r.RelevanceScore, r.RankOrder, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert recommendation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recommendations: %w", err)
	}

	logger.Debug("Shared recommendations replaced",
		zap.Int64("profile_type_id", profileTypeID),
		zap.Int("count", len(recs)),
	)
	return nil
}

func (c *Client) GetRecommendedPolicies(userID int64) ([]models.RecommendedPolicy, error) {
	rows, err := c.db.Query(
		`SELECT id, user_id, policy_id, policy_title, policy_content, page_number, category, relevance_score, rank_order, created_at
		 FROM recommended_policies WHERE user_id = ? ORDER BY rank_order`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get recommended policies: %w", err)
	}
	defer rows.Close()

	var recs []models.RecommendedPolicy
	for rows.Next() {
		var r models.RecommendedPolicy
		var page, category sql.NullString
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.UserID, &r.PolicyID, &r.PolicyTitle, &r.PolicyContent, &page, &category, &r.RelevanceScore, &r.RankOrder, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan recommended policy: %w", err)
		}
		r.PageNumber = page.String
		r.Category = category.String
		r.CreatedAt = time.Unix(createdAt, 0)
		recs = append(recs, r)
	}

	return recs, rows.Err()
}

// ReplaceRecommendedPolicies is the personal-tier counterpart of
// ReplaceProfileRecommendations.
func (c *Client) ReplaceRecommendedPolicies(ctx context.Context, userID int64, recs []models.RecommendedPolicy) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM recommended_policies WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete old recommended policies: %w", err)
	}

	now := time.Now().Unix()
	for _, r := range recs {
		_, err := tx.Exec(
			`INSERT INTO recommended_policies (user_id, policy_id, policy_title, policy_content, page_number, category, relevance_score, rank_order, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			userID, r.PolicyID, r.PolicyTitle, r.PolicyContent, r.PageNumber, r.Category, r.RelevanceScore, r.RankOrder, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert recommended policy: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recommended policies: %w", err)
	}

	logger.Debug("Personal recommendations replaced",
		zap.Int64("user_id", userID),
		zap.Int("count", len(recs)),
	)
	return nil
}

// SavePolicy is idempotent: saving an already-saved policy returns the
// existing row.
func (c *Client) SavePolicy(userID int64, policyID string) (*models.SavedPolicy, error) {
	_, err := c.db.Exec(
		`INSERT INTO saved_policies (user_id, policy_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, policy_id) DO NOTHING`,
		userID, policyID, time.Now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save policy: %w", err)
	}

	var s models.SavedPolicy
	var createdAt int64
	err = c.db.QueryRow(
		`SELECT id, user_id, policy_id, created_at FROM saved_policies WHERE user_id = ? AND policy_id = ?`,
		userID, policyID,
	).Scan(&s.ID, &s.UserID, &s.PolicyID, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch saved policy: %w", err)
	}

	s.CreatedAt = time.Unix(createdAt, 0)
	return &s, nil
}

// UnsavePolicy reports whether a row was actually removed so the API layer
// can distinguish 404 from 200.
func (c *Client) UnsavePolicy(userID int64, policyID string) (bool, error) {
	res, err := c.db.Exec(`DELETE FROM saved_policies WHERE user_id = ? AND policy_id = ?`, userID, policyID)
	if err != nil {
		return false, fmt.Errorf("failed to unsave policy: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

func (c *Client) ListSavedPolicies(userID int64) ([]models.SavedPolicy, error) {
	rows, err := c.db.Query(
		`SELECT id, user_id, policy_id, created_at FROM saved_policies WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved policies: %w", err)
	}
	defer rows.Close()

	var saved []models.SavedPolicy
	for rows.Next() {
		var s models.SavedPolicy
		var createdAt int64
		if err := rows.Scan(&s.ID, &s.UserID, &s.PolicyID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan saved policy: %w", err)
		}
		s.CreatedAt = time.Unix(createdAt, 0)
		saved = append(saved, s)
	}

	return saved, rows.Err()
}

func (c *Client) IsPolicySaved(userID int64, policyID string) (bool, error) {
	var one int
	err := c.db.QueryRow(
		`SELECT 1 FROM saved_policies WHERE user_id = ? AND policy_id = ?`,
		userID, policyID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check saved policy: %w", err)
	}
	return true, nil
}

func (c *Client) InsertPolicyChunk(chunk *models.PolicyChunk) error {
	_, err := c.db.Exec(
		`INSERT INTO policy_chunks (id, policy_id, content, page_number, chunk_index, title, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			page_number = excluded.page_number,
			title = excluded.title,
			category = excluded.category`,
		chunk.ID, chunk.PolicyID, chunk.Content, chunk.PageNumber, chunk.ChunkIndex, chunk.Title, chunk.Category, chunk.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert policy chunk: %w", err)
	}
	return nil
}

// ListPolicyChunks pages through the chunk catalog, optionally filtered by
// category.
func (c *Client) ListPolicyChunks(category string, limit, offset int) ([]models.PolicyChunk, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, policy_id, content, page_number, chunk_index, title, category, created_at
		 FROM policy_chunks`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY policy_id, chunk_index LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list policy chunks: %w", err)
	}
	defer rows.Close()

	return scanPolicyChunks(rows)
}

// SearchPolicyChunks matches the query text against chunk titles and
// content.
func (c *Client) SearchPolicyChunks(query string, limit int) ([]models.PolicyChunk, error) {
	if limit <= 0 {
		limit = 20
	}

	pattern := "%" + query + "%"
	rows, err := c.db.Query(
		`SELECT id, policy_id, content, page_number, chunk_index, title, category, created_at
		 FROM policy_chunks
		 WHERE title LIKE ? OR content LIKE ?
		 ORDER BY policy_id, chunk_index LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search policy chunks: %w", err)
	}
	defer rows.Close()

	return scanPolicyChunks(rows)
}

func scanPolicyChunks(rows *sql.Rows) ([]models.PolicyChunk, error) {
	var chunks []models.PolicyChunk
	for rows.Next() {
		var ch models.PolicyChunk
		var policyID, page, title, category sql.NullString
		var chunkIndex sql.NullInt64
		var createdAt int64
		if err := rows.Scan(&ch.ID, &policyID, &ch.Content, &page, &chunkIndex, &title, &category, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan policy chunk: %w", err)
		}
		ch.PolicyID = policyID.String
		ch.PageNumber = page.String
		ch.ChunkIndex = int(chunkIndex.Int64)
		ch.Title = title.String
		ch.Category = category.String
		ch.CreatedAt = time.Unix(createdAt, 0)
		chunks = append(chunks, ch)
	}

	return chunks, rows.Err()
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
