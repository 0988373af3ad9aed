package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-campus/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-campus/pkg/database"
	"github.com/ekaya-inc/ekaya-campus/pkg/models"
)

// UniversityRepository defines the interface for saved university data access.
// Rows are keyed by name; the surrogate id is only used for display.
type UniversityRepository interface {
	Upsert(ctx context.Context, details *models.UniversityDetails) error
	List(ctx context.Context) ([]models.UniversityDetails, error)
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
}

type universityRepository struct {
	db *database.DB
}

// NewUniversityRepository creates a new university repository.
func NewUniversityRepository(db *database.DB) UniversityRepository {
	return &universityRepository{db: db}
}

var _ UniversityRepository = (*universityRepository)(nil)

const universityColumns = `
	id, name, location, country, type, classification,
	description, website, world_ranking, programs, created_at, last_synced_at`

// Upsert inserts the university or overwrites the row with the same name.
// Grounding sources are not persisted.
func (r *universityRepository) Upsert(ctx context.Context, details *models.UniversityDetails) error {
	programs, err := json.Marshal(jsonbPrograms(details.Programs))
	if err != nil {
		return fmt.Errorf("failed to marshal programs: %w", err)
	}

	query := `
		INSERT INTO universities (
			name, location, country, type, classification,
			description, website, world_ranking, programs, last_synced_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (name) DO UPDATE
		SET location = EXCLUDED.location,
		    country = EXCLUDED.country,
		    type = EXCLUDED.type,
		    classification = EXCLUDED.classification,
		    description = EXCLUDED.description,
		    website = EXCLUDED.website,
		    world_ranking = EXCLUDED.world_ranking,
		    programs = EXCLUDED.programs,
		    last_synced_at = now()`

	_, err = r.db.Exec(ctx, query,
		details.Name,
		nullString(details.Location),
		nullString(details.Country),
		nullString(details.Type.String()),
		nullString(details.Classification),
		nullString(details.Description),
		nullString(details.Website),
		details.WorldRanking,
		programs,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert university %q: %v", apperrors.ErrStore, details.Name, err)
	}
	return nil
}

// List returns every saved university, most recently created first.
func (r *universityRepository) List(ctx context.Context) ([]models.UniversityDetails, error) {
	query := `SELECT ` + universityColumns + ` FROM universities ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list universities: %v", apperrors.ErrStore, err)
	}
	defer rows.Close()

	universities := make([]models.UniversityDetails, 0)
	for rows.Next() {
		row, err := scanUniversityRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrStore, err)
		}
		details, err := row.toDetails()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrStore, err)
		}
		universities = append(universities, *details)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating universities: %v", apperrors.ErrStore, err)
	}

	return universities, nil
}

// Exists reports whether a row with the given name is saved.
func (r *universityRepository) Exists(ctx context.Context, name string) (bool, error) {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT id FROM universities WHERE name = $1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: failed to look up university %q: %v", apperrors.ErrStore, name, err)
	}
	return true, nil
}

// Delete removes the row with the given name. Deleting a missing row is not an error.
func (r *universityRepository) Delete(ctx context.Context, name string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM universities WHERE name = $1`, name); err != nil {
		return fmt.Errorf("%w: failed to delete university %q: %v", apperrors.ErrStore, name, err)
	}
	return nil
}

// universityRow mirrors the universities table column for column.
type universityRow struct {
	ID             int64
	Name           string
	Location       *string
	Country        *string
	Type           *string
	Classification *string
	Description    *string
	Website        *string
	WorldRanking   *int32
	Programs       []byte
	CreatedAt      time.Time
	LastSyncedAt   time.Time
}

func scanUniversityRow(row pgx.Row) (*universityRow, error) {
	var u universityRow
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Location,
		&u.Country,
		&u.Type,
		&u.Classification,
		&u.Description,
		&u.Website,
		&u.WorldRanking,
		&u.Programs,
		&u.CreatedAt,
		&u.LastSyncedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan university: %w", err)
	}
	return &u, nil
}

// toDetails maps a stored row onto the domain model. Absent columns become
// zero values, absent program arrays become empty, and sources are always empty.
func (u *universityRow) toDetails() (*models.UniversityDetails, error) {
	details := &models.UniversityDetails{
		University: models.University{
			ID:             strconv.FormatInt(u.ID, 10),
			Name:           u.Name,
			Location:       deref(u.Location),
			Country:        deref(u.Country),
			Type:           models.ParseInstitutionType(deref(u.Type)),
			Classification: deref(u.Classification),
			Description:    deref(u.Description),
			Website:        deref(u.Website),
		},
		Programs: []models.Program{},
		Sources:  []models.GroundingSource{},
	}

	if u.WorldRanking != nil {
		rank := int(*u.WorldRanking)
		details.WorldRanking = &rank
	}

	if len(u.Programs) > 0 && string(u.Programs) != "null" {
		if err := json.Unmarshal(u.Programs, &details.Programs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal programs for %q: %w", u.Name, err)
		}
		if details.Programs == nil {
			details.Programs = []models.Program{}
		}
	}

	return details, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// jsonbPrograms stores an empty array rather than NULL.
func jsonbPrograms(programs []models.Program) []models.Program {
	if programs == nil {
		return []models.Program{}
	}
	return programs
}
