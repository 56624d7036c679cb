// package repositories provides the persistence layer for the local
// profile cache.
//
// Each repository implements models.Repository[T] for a specific entity
// type over the sqlite database, so commands like whoami can show the
// last known account while offline.
package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/inkpot-dev/inkwell/internal/models"
	"github.com/inkpot-dev/inkwell/internal/shared"
)

// ProfileRepository implements [models.Repository] for [models.CachedProfile] persistence.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new [ProfileRepository] with the given database connection
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a new cached profile into the database with a generated ID
func (r *ProfileRepository) Create(profile *models.CachedProfile) error {
	id := shared.GenerateID()
	profile.SetID(id)

	if err := profile.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO cached_profiles (id, canonical_name, display_name, locale, picture_url, status, theme, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	p := profile.Profile
	_, err := r.db.Exec(query, id, p.CanonicalName, p.DisplayName, p.Locale, p.PictureURL, int(p.Status), p.Theme, profile.CreatedAt(), profile.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert cached profile: %w", err)
	}

	return nil
}

// Get retrieves a cached profile by ID
func (r *ProfileRepository) Get(id string) (*models.CachedProfile, error) {
	query := `
		SELECT id, canonical_name, display_name, locale, picture_url, status, theme, created_at, updated_at
		FROM cached_profiles
		WHERE id = ?
	`

	return r.scanOne(r.db.QueryRow(query, id), id)
}

// GetByCanonicalName retrieves a cached profile by its account name
func (r *ProfileRepository) GetByCanonicalName(name string) (*models.CachedProfile, error) {
	query := `
		SELECT id, canonical_name, display_name, locale, picture_url, status, theme, created_at, updated_at
		FROM cached_profiles
		WHERE canonical_name = ?
	`

	return r.scanOne(r.db.QueryRow(query, name), name)
}

// Update modifies an existing cached profile in the database
func (r *ProfileRepository) Update(profile *models.CachedProfile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	profile.SetUpdatedAt(now)

	query := `
		UPDATE cached_profiles
		SET canonical_name = ?, display_name = ?, locale = ?, picture_url = ?, status = ?, theme = ?, updated_at = ?
		WHERE id = ?
	`

	p := profile.Profile
	result, err := r.db.Exec(query, p.CanonicalName, p.DisplayName, p.Locale, p.PictureURL, int(p.Status), p.Theme, now, profile.ID())
	if err != nil {
		return fmt.Errorf("failed to update cached profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("cached profile not found: %s", profile.ID())
	}

	return nil
}

// Delete removes a cached profile by ID
func (r *ProfileRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM cached_profiles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete cached profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("cached profile not found: %s", id)
	}

	return nil
}

// List retrieves all cached profiles matching the given criteria
func (r *ProfileRepository) List(criteria map[string]any) ([]*models.CachedProfile, error) {
	query := `
		SELECT id, canonical_name, display_name, locale, picture_url, status, theme, created_at, updated_at
		FROM cached_profiles
		WHERE 1 = 1
	`

	args := []any{}

	if name, ok := criteria["canonical_name"].(string); ok && name != "" {
		query += " AND canonical_name = ?"
		args = append(args, name)
	}

	query += " ORDER BY updated_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.CachedProfile
	for rows.Next() {
		profile, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return profiles, nil
}

// Upsert stores the latest snapshot for an account, inserting or
// replacing on the canonical name.
func (r *ProfileRepository) Upsert(snapshot models.UserProfile) (*models.CachedProfile, error) {
	existing, err := r.GetByCanonicalName(snapshot.CanonicalName)
	if err == nil {
		existing.Profile = snapshot
		if uerr := r.Update(existing); uerr != nil {
			return nil, uerr
		}
		return existing, nil
	}

	profile := models.NewCachedProfile(snapshot)
	if cerr := r.Create(profile); cerr != nil {
		return nil, cerr
	}
	return profile, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ProfileRepository) scanOne(row *sql.Row, key string) (*models.CachedProfile, error) {
	profile, err := scanRow(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cached profile not found: %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cached profile: %w", err)
	}
	return profile, nil
}

func scanRow(row rowScanner) (*models.CachedProfile, error) {
	var (
		id            string
		canonicalName string
		displayName   string
		locale        string
		pictureURL    string
		status        int
		theme         string
		createdAt     time.Time
		updatedAt     time.Time
	)

	err := row.Scan(&id, &canonicalName, &displayName, &locale, &pictureURL, &status, &theme, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	profile := models.NewCachedProfile(models.UserProfile{
		CanonicalName: canonicalName,
		DisplayName:   displayName,
		Locale:        locale,
		PictureURL:    pictureURL,
		Status:        models.UserStatus(status),
		Theme:         theme,
	})
	profile.SetID(id)
	profile.SetCreatedAt(createdAt)
	profile.SetUpdatedAt(updatedAt)

	return profile, nil
}
