package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/botgate/internal/domain/enums"
	"github.com/ivankudzin/botgate/internal/domain/model"
)

const auditTable = "bot_actions"

var auditColumns = []string{
	"id",
	"action_type",
	"bot_id",
	"bot_name",
	"guild_id",
	"guild_name",
	"moderator_id",
	"moderator_name",
	"invited_by_id",
	"invited_by_name",
	"reason",
	"bot_permissions",
	"account_age_days",
	"created_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type AuditRepo struct {
	db Querier
}

func NewAuditRepo(db Querier) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Insert(ctx context.Context, record model.AuditRecord) (int64, error) {
	if r.db == nil {
		return 0, fmt.Errorf("postgres querier is nil")
	}
	if record.Action == "" || record.EntityID == 0 || record.CommunityID == 0 {
		return 0, fmt.Errorf("invalid audit record payload")
	}

	columns := auditColumns[1 : len(auditColumns)-1]
	values := []interface{}{
		string(record.Action),
		record.EntityID,
		record.EntityName,
		record.CommunityID,
		record.CommunityName,
		record.ModeratorID,
		record.ModeratorName,
		record.InviterID,
		record.InviterName,
		record.Reason,
		record.Permissions,
		record.AccountAgeDays,
	}
	// created_at defaults to the server clock; explicit timestamps are kept for backfills.
	if !record.CreatedAt.IsZero() {
		columns = append(columns[:len(columns):len(columns)], "created_at")
		values = append(values, record.CreatedAt)
	}

	query, args, err := psql.Insert(auditTable).
		Columns(columns...).
		Values(values...).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert audit record: %w", err)
	}

	var id int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert audit record: %w", err)
	}
	return id, nil
}

func (r *AuditRepo) ListRecent(ctx context.Context, communityID int64, limit int) ([]model.AuditRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	query := psql.Select(auditColumns...).
		From(auditTable).
		Where(sq.Eq{"guild_id": communityID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit))

	return r.list(ctx, query)
}

func (r *AuditRepo) History(ctx context.Context, entityID int64) ([]model.AuditRecord, error) {
	query := psql.Select(auditColumns...).
		From(auditTable).
		Where(sq.Eq{"bot_id": entityID}).
		OrderBy("created_at DESC", "id DESC")

	return r.list(ctx, query)
}

// Stats counts records for the community overall and since the given instant in a single pass.
func (r *AuditRepo) Stats(ctx context.Context, communityID int64, since time.Time) (model.AuditStats, error) {
	if r.db == nil {
		return model.AuditStats{}, fmt.Errorf("postgres querier is nil")
	}

	actionFilter := func(action enums.AuditAction) string {
		return fmt.Sprintf("COUNT(*) FILTER (WHERE action_type = '%s')", action)
	}
	recentFilter := func(action enums.AuditAction) sq.Sqlizer {
		if action == "" {
			return sq.Expr("COUNT(*) FILTER (WHERE created_at > ?)", since)
		}
		return sq.Expr(fmt.Sprintf("COUNT(*) FILTER (WHERE created_at > ? AND action_type = '%s')", action), since)
	}

	query, args, err := psql.Select(
		"COUNT(*)",
		actionFilter(enums.AuditActionApproved),
		actionFilter(enums.AuditActionRejected),
		actionFilter(enums.AuditActionAutoKicked),
		actionFilter(enums.AuditActionDetected),
	).
		Column(recentFilter("")).
		Column(recentFilter(enums.AuditActionApproved)).
		Column(recentFilter(enums.AuditActionRejected)).
		Column(recentFilter(enums.AuditActionAutoKicked)).
		Column(recentFilter(enums.AuditActionDetected)).
		From(auditTable).
		Where(sq.Eq{"guild_id": communityID}).
		ToSql()
	if err != nil {
		return model.AuditStats{}, fmt.Errorf("build audit stats: %w", err)
	}

	var stats model.AuditStats
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&stats.Overall.Total,
		&stats.Overall.Approved,
		&stats.Overall.Rejected,
		&stats.Overall.AutoKicked,
		&stats.Overall.Detected,
		&stats.Recent.Total,
		&stats.Recent.Approved,
		&stats.Recent.Rejected,
		&stats.Recent.AutoKicked,
		&stats.Recent.Detected,
	); err != nil {
		return model.AuditStats{}, fmt.Errorf("query audit stats: %w", err)
	}
	return stats, nil
}

func (r *AuditRepo) list(ctx context.Context, builder sq.SelectBuilder) ([]model.AuditRecord, error) {
	if r.db == nil {
		return nil, fmt.Errorf("postgres querier is nil")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build audit query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	result := make([]model.AuditRecord, 0)
	for rows.Next() {
		record, err := scanAuditRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}
	return result, nil
}

func scanAuditRecord(rows pgx.Rows) (model.AuditRecord, error) {
	var (
		record model.AuditRecord
		action string
	)
	if err := rows.Scan(
		&record.ID,
		&action,
		&record.EntityID,
		&record.EntityName,
		&record.CommunityID,
		&record.CommunityName,
		&record.ModeratorID,
		&record.ModeratorName,
		&record.InviterID,
		&record.InviterName,
		&record.Reason,
		&record.Permissions,
		&record.AccountAgeDays,
		&record.CreatedAt,
	); err != nil {
		return model.AuditRecord{}, fmt.Errorf("scan audit record: %w", err)
	}
	record.Action = enums.AuditAction(action)
	return record, nil
}
