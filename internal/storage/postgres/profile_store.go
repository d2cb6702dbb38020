package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/examshaala/examshaala-portal/internal/interfaces"
	"github.com/examshaala/examshaala-portal/internal/models"
)

// profileColumns maps merge field names to columns and value accessors.
var profileColumns = map[string]struct {
	column string
	value  func(*models.UserProfile) any
}{
	models.FieldFullName:     {"full_name", func(p *models.UserProfile) any { return p.FullName }},
	models.FieldEmail:        {"email", func(p *models.UserProfile) any { return p.Email }},
	models.FieldExamCategory: {"exam_category", func(p *models.UserProfile) any { return p.ExamCategory }},
	models.FieldRole:         {"role", func(p *models.UserProfile) any { return p.Role }},
	models.FieldAuthProvider: {"auth_provider", func(p *models.UserProfile) any { return p.AuthProvider }},
	models.FieldVerified:     {"verified", func(p *models.UserProfile) any { return p.Verified }},
	models.FieldPlatform:     {"platform", func(p *models.UserProfile) any { return p.Platform }},
}

// Server-assigned timestamp expressions. last_login never moves backwards or
// repeats.
const (
	createdAtExpr = "created_at = now()"
	lastLoginExpr = "last_login = GREATEST(clock_timestamp(), user_profiles.last_login + interval '1 microsecond')"
)

// ProfileStore implements interfaces.ProfileStore on PostgreSQL.
type ProfileStore struct {
	db DBTX
}

// NewProfileStore creates a PostgreSQL-backed profile store.
func NewProfileStore(db DBTX) *ProfileStore {
	return &ProfileStore{db: db}
}

// GetProfile retrieves a profile by UID.
func (s *ProfileStore) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	query := `
		SELECT uid, full_name, email, exam_category, role, created_at, last_login, auth_provider, verified, platform
		FROM user_profiles
		WHERE uid = $1`

	var p models.UserProfile
	err := s.db.QueryRow(ctx, query, uid).Scan(
		&p.ID, &p.FullName, &p.Email, &p.ExamCategory, &p.Role,
		&p.CreatedAt, &p.LastLogin, &p.AuthProvider, &p.Verified, &p.Platform,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// WriteProfile upserts (replace) or partially updates (merge) a profile.
func (s *ProfileStore) WriteProfile(ctx context.Context, p *models.UserProfile, mode interfaces.WriteMode, fields ...string) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("profile id is required")
	}
	switch mode {
	case interfaces.WriteReplace:
		return s.replace(ctx, p)
	case interfaces.WriteMerge:
		return s.merge(ctx, p, fields)
	default:
		return fmt.Errorf("unknown write mode %d", mode)
	}
}

// replaceProfileSQL creates a profile. On conflict the duplicate create is
// absorbed: created_at and verified stay, name and exam category are only
// filled while empty or at their defaults ($9, $10), other text columns only
// while empty.
const replaceProfileSQL = `
		INSERT INTO user_profiles (uid, full_name, email, exam_category, role, auth_provider, verified, platform, created_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), clock_timestamp())
		ON CONFLICT (uid) DO UPDATE
		SET full_name = CASE WHEN user_profiles.full_name IN ('', $9) THEN EXCLUDED.full_name ELSE user_profiles.full_name END,
		    exam_category = CASE WHEN user_profiles.exam_category IN ('', $10) THEN EXCLUDED.exam_category ELSE user_profiles.exam_category END,
		    email = COALESCE(NULLIF(user_profiles.email, ''), EXCLUDED.email),
		    role = COALESCE(NULLIF(user_profiles.role, ''), EXCLUDED.role),
		    auth_provider = COALESCE(NULLIF(user_profiles.auth_provider, ''), EXCLUDED.auth_provider),
		    platform = COALESCE(NULLIF(user_profiles.platform, ''), EXCLUDED.platform),
		    ` + lastLoginExpr + `
		RETURNING created_at, last_login`

func (s *ProfileStore) replace(ctx context.Context, p *models.UserProfile) error {
	err := s.db.QueryRow(ctx, replaceProfileSQL,
		p.ID, p.FullName, p.Email, p.ExamCategory, p.Role, p.AuthProvider, p.Verified, p.Platform,
		models.DefaultFullName, models.DefaultExamCategory,
	).Scan(&p.CreatedAt, &p.LastLogin)
	if err != nil {
		return fmt.Errorf("replace profile: %w", err)
	}
	return nil
}

func (s *ProfileStore) merge(ctx context.Context, p *models.UserProfile, fields []string) error {
	var sets []string
	var args []any
	for _, f := range fields {
		switch f {
		case models.FieldCreatedAt:
			sets = append(sets, createdAtExpr)
		case models.FieldLastLogin:
			sets = append(sets, lastLoginExpr)
		default:
			col, ok := profileColumns[f]
			if !ok {
				continue
			}
			args = append(args, col.value(p))
			sets = append(sets, fmt.Sprintf("%s = $%d", col.column, len(args)))
		}
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, p.ID)

	query := fmt.Sprintf(`UPDATE user_profiles SET %s WHERE uid = $%d RETURNING created_at, last_login`,
		strings.Join(sets, ", "), len(args))

	err := s.db.QueryRow(ctx, query, args...).Scan(&p.CreatedAt, &p.LastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return interfaces.ErrNotFound
		}
		return fmt.Errorf("merge profile: %w", err)
	}
	return nil
}
