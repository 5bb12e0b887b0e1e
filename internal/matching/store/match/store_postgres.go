package match

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"givecycle/internal/matching/models"
	"givecycle/internal/matching/ports"
	"givecycle/pkg/platform/sentinel"
	"givecycle/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

const (
	tableName = "matches"

	constraintDonorPending    = "matches_one_pending_per_donor"
	constraintRecipientActive = "matches_one_active_per_recipient"
	pqUniqueViolation         = "23505"
)

var columns = []string{
	"id", "donor_id", "recipient_id", "amount", "status", "priority_score",
	"score", "score_source", "created_at", "expires_at", "updated_at",
}

var (
	columnList = strings.Join(columns, ", ")
	returning  = "RETURNING " + columnList
)

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists matches in PostgreSQL. Uniqueness rules are
// enforced by partial unique indexes, so concurrent writers cannot race.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed match store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the matches table and its indexes if missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate matches schema: %w", err)
	}
	return nil
}

// q returns the transaction from ctx when present.
func (s *PostgresStore) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *PostgresStore) CreatePendingMatch(ctx context.Context, m *models.Match) error {
	query, args, err := psql().
		Insert(tableName).
		Columns(columns...).
		Values(m.ID, m.DonorID, m.RecipientID, m.Amount, string(models.StatusPending), m.PriorityScore,
			m.Score, string(m.ScoreSource), m.CreatedAt, m.ExpiresAt, m.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build create match query: %w", err)
	}

	if _, err := s.q(ctx).ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			switch pqErr.Constraint {
			case constraintDonorPending:
				return ports.ErrDonorHasPendingMatch
			case constraintRecipientActive:
				return ports.ErrRecipientHasActive
			}
			return fmt.Errorf("%w: %s", sentinel.ErrConflict, pqErr.Constraint)
		}
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

// BulkExpirePending transitions overdue pending rows in one statement. The
// status predicate is evaluated by the UPDATE itself, so rows confirmed
// concurrently are never touched.
func (s *PostgresStore) BulkExpirePending(ctx context.Context, now time.Time) ([]*models.Match, error) {
	query, args, err := psql().
		Update(tableName).
		Set("status", string(models.StatusExpired)).
		Set("updated_at", now).
		Where(sq.Eq{"status": string(models.StatusPending)}).
		Where(sq.Lt{"expires_at": now}).
		Suffix(returning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build expire query: %w", err)
	}
	return s.queryMatches(ctx, "expire pending matches", query, args...)
}

func (s *PostgresStore) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]*models.Match, error) {
	b := psql().
		Select(columns...).
		From(tableName).
		Where(sq.Eq{"status": string(models.StatusPending)}).
		Where(sq.Lt{"expires_at": now}).
		OrderBy("expires_at ASC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find expired query: %w", err)
	}
	return s.queryMatches(ctx, "find expired pending matches", query, args...)
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	query, args, err := psql().
		Select(columns...).
		From(tableName).
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find match query: %w", err)
	}
	m, err := scanMatch(s.q(ctx).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find match: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) SetPriority(ctx context.Context, id uuid.UUID, priority int, now time.Time) (*models.Match, error) {
	query, args, err := psql().
		Update(tableName).
		Set("priority_score", priority).
		Set("updated_at", now).
		Where(sq.Eq{"id": id.String(), "status": string(models.StatusPending)}).
		Suffix(returning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build set priority query: %w", err)
	}
	return s.guardedUpdate(ctx, id, "set match priority", query, args...)
}

func (s *PostgresStore) Transition(ctx context.Context, id uuid.UUID, from, to models.MatchStatus, now time.Time) (*models.Match, error) {
	if !from.CanTransitionTo(to) || to == models.StatusExpired {
		return nil, sentinel.ErrInvalidState
	}
	query, args, err := psql().
		Update(tableName).
		Set("status", string(to)).
		Set("updated_at", now).
		Where(sq.Eq{"id": id.String(), "status": string(from)}).
		Suffix(returning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build transition query: %w", err)
	}
	return s.guardedUpdate(ctx, id, "transition match", query, args...)
}

// guardedUpdate runs a conditional UPDATE ... RETURNING. No row back means
// either the match is missing or its state failed the predicate.
func (s *PostgresStore) guardedUpdate(ctx context.Context, id uuid.UUID, op, query string, args ...any) (*models.Match, error) {
	m, err := scanMatch(s.q(ctx).QueryRowContext(ctx, query, args...))
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, findErr := s.FindByID(ctx, id); findErr != nil {
		return nil, findErr
	}
	return nil, sentinel.ErrInvalidState
}

// LatestByRecipient returns the most recent match of each recipient in ids.
func (s *PostgresStore) LatestByRecipient(ctx context.Context, ids []string) (map[string]*models.Match, error) {
	out := make(map[string]*models.Match, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `
		SELECT DISTINCT ON (recipient_id) ` + columnList + `
		FROM matches
		WHERE recipient_id = ANY($1)
		ORDER BY recipient_id, created_at DESC
	`
	matches, err := s.queryMatches(ctx, "latest matches by recipient", query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		out[m.RecipientID] = m
	}
	return out, nil
}

func (s *PostgresStore) queryMatches(ctx context.Context, op, query string, args ...any) ([]*models.Match, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(row scanner) (*models.Match, error) {
	var (
		m      models.Match
		status string
		source string
	)
	if err := row.Scan(&m.ID, &m.DonorID, &m.RecipientID, &m.Amount, &status, &m.PriorityScore,
		&m.Score, &source, &m.CreatedAt, &m.ExpiresAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Status = models.MatchStatus(status)
	m.ScoreSource = models.ScoreSource(source)
	return &m, nil
}
