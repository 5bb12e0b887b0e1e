// Package candidate reads the recipient pool.
package candidate

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	"givecycle/internal/matching/models"
)

const (
	usersTable         = "users"
	pendingCyclesTable = "pending_cycles"
	donationsTable     = "donations"
)

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

type candidateRow struct {
	ID                   string     `db:"id"`
	TrustScore           float64    `db:"trust_score"`
	Active               bool       `db:"active"`
	Banned               bool       `db:"banned"`
	Verification         string     `db:"verification_status"`
	City                 *string    `db:"city"`
	Faith                *string    `db:"faith"`
	CreatedAt            time.Time  `db:"created_at"`
	DateOfBirth          *time.Time `db:"date_of_birth"`
	OldestPendingCycleAt *time.Time `db:"oldest_pending_cycle_at"`
	DonationCount        int        `db:"donation_count"`
	DonationTotal        int64      `db:"donation_total"`
	PriorityScore        int        `db:"priority_score"`
}

func (r candidateRow) toModel() models.Candidate {
	c := models.Candidate{
		ID:                   r.ID,
		TrustScore:           r.TrustScore,
		Active:               r.Active,
		Banned:               r.Banned,
		Verification:         r.Verification,
		CreatedAt:            r.CreatedAt,
		DateOfBirth:          r.DateOfBirth,
		OldestPendingCycleAt: r.OldestPendingCycleAt,
		DonationHistory: models.DonationHistory{
			Count:       r.DonationCount,
			TotalAmount: r.DonationTotal,
		},
		PriorityScore: r.PriorityScore,
	}
	if r.City != nil {
		c.City = *r.City
	}
	if r.Faith != nil {
		c.Faith = *r.Faith
	}
	return c
}

// PostgresDirectory queries the user tables owned by the KYC and request
// flows. It needs the matches table in the same database to exclude
// recipients that are already occupied.
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgres builds a directory on a pgx pool.
func NewPostgres(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

// FindCandidates returns at most limit eligible recipients, oldest account
// first so the pool order is stable between calls.
func (d *PostgresDirectory) FindCandidates(ctx context.Context, excludeID string, filter models.CandidateFilter, limit int) ([]models.Candidate, error) {
	b := psql().
		Select(
			"u.id", "u.trust_score", "u.active", "u.banned", "u.verification_status",
			"u.city", "u.faith", "u.created_at", "u.date_of_birth",
		).
		Column("(SELECT MIN(pc.created_at) FROM " + pendingCyclesTable + " pc WHERE pc.user_id = u.id AND pc.fulfilled_at IS NULL) AS oldest_pending_cycle_at").
		Column("(SELECT COUNT(*) FROM " + donationsTable + " d WHERE d.donor_id = u.id) AS donation_count").
		Column("(SELECT COALESCE(SUM(d.amount), 0)::bigint FROM " + donationsTable + " d WHERE d.donor_id = u.id) AS donation_total").
		Column(sq.Expr(
			"COALESCE((SELECT CASE WHEN m.status IN (?, ?) THEN m.priority_score ELSE 0 END FROM matches m WHERE m.recipient_id = u.id ORDER BY m.created_at DESC LIMIT 1), 0) AS priority_score",
			string(models.StatusPending), string(models.StatusExpired),
		)).
		From(usersTable + " u").
		Where(sq.Eq{
			"u.active":              true,
			"u.banned":              false,
			"u.verification_status": models.VerificationApproved,
		}).
		Where(sq.NotEq{"u.id": excludeID}).
		Where(sq.Expr(
			"NOT EXISTS (SELECT 1 FROM matches m WHERE m.recipient_id = u.id AND m.status IN (?, ?, ?))",
			string(models.StatusPending), string(models.StatusConfirmed), string(models.StatusEscrowed),
		)).
		OrderBy("u.created_at ASC", "u.id ASC")

	if loc := strings.TrimSpace(filter.Location); loc != "" {
		b = b.Where(sq.Expr("lower(trim(u.city)) = lower(?)", loc))
	}
	if faith := strings.TrimSpace(filter.Faith); faith != "" {
		b = b.Where(sq.Eq{"u.faith": faith})
	}
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate candidate pool query: %w", err)
	}

	var rows []candidateRow
	if err := pgxscan.Select(ctx, d.pool, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch candidate pool: %w", err)
	}

	out := make([]models.Candidate, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}
