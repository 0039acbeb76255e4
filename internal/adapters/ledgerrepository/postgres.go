package ledgerrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mundheim/grouptrack/internal/domain"
	"github.com/mundheim/grouptrack/internal/reporting"
)

type Postgres struct {
	db      *sqlx.DB
	schema  string
	tracer  trace.Tracer
	nowFunc func() time.Time
}

func NewPostgres(db *sqlx.DB, schema string, nowFunc func() time.Time) *Postgres {
	tracer := otel.Tracer("grouptrack/ledgerrepository/postgres")
	return &Postgres{
		db:      db,
		schema:  schema,
		tracer:  tracer,
		nowFunc: nowFunc,
	}
}

var _ LedgerRepository = (*Postgres)(nil)

type dbUser struct {
	UserID       int64     `db:"user_id"`
	Username     string    `db:"username"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	Points       int64     `db:"points"`
	MessageCount int64     `db:"message_count"`
	StickerCount int64     `db:"sticker_count"`
	FirstSeen    time.Time `db:"first_seen"`
	LastActivity time.Time `db:"last_activity"`
}

func (u dbUser) toDomain() domain.User {
	return domain.User{
		UserID:       u.UserID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Points:       u.Points,
		MessageCount: u.MessageCount,
		StickerCount: u.StickerCount,
		FirstSeen:    u.FirstSeen,
		LastActivity: u.LastActivity,
	}
}

const userColumns = "user_id, username, first_name, last_name, points, message_count, sticker_count, first_seen, last_activity"

func (p *Postgres) RegisterOrRefresh(ctx context.Context, userID int64, username, firstName, lastName string) (domain.User, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.RegisterOrRefresh")
	defer span.End()

	if userID == 0 {
		err := fmt.Errorf("userID is empty")
		reporting.Report(ctx, err)
		return domain.User{}, err
	}

	now := p.nowFunc()

	var user dbUser
	err := p.db.QueryRowxContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s.users
		(user_id, username, first_name, last_name, first_seen, last_activity)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id)
		DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			last_activity = EXCLUDED.last_activity
		RETURNING `+userColumns,
			pq.QuoteIdentifier(p.schema)),
		userID,
		username,
		firstName,
		lastName,
		now,
	).StructScan(&user)
	if err != nil {
		err := fmt.Errorf("failed to insert or update user: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"userID": fmt.Sprint(userID),
		})
		return domain.User{}, err
	}

	return user.toDomain(), nil
}

func (p *Postgres) RecordActivity(ctx context.Context, userID int64, kind domain.ActivityKind, points int64) error {
	ctx, span := p.tracer.Start(ctx, "Postgres.RecordActivity")
	defer span.End()

	var counterColumn string
	switch kind {
	case domain.ActivityMessage:
		counterColumn = "message_count"
	case domain.ActivitySticker:
		counterColumn = "sticker_count"
	default:
		err := fmt.Errorf("unknown activity kind: %q", kind)
		reporting.Report(ctx, err)
		return err
	}

	now := p.nowFunc()

	txx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	defer txx.Rollback()

	result, err := txx.ExecContext(
		ctx,
		fmt.Sprintf(`UPDATE %s.users
		SET points = points + $2, %s = %s + 1, last_activity = $3
		WHERE user_id = $1`,
			pq.QuoteIdentifier(p.schema), counterColumn, counterColumn),
		userID,
		points,
		now,
	)
	if err != nil {
		err := fmt.Errorf("failed to update counters: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"userID": fmt.Sprint(userID),
		})
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		err := fmt.Errorf("failed to get affected rows: %w", err)
		reporting.Report(ctx, err)
		return err
	}
	if rows == 0 {
		// Callers register the user in the same turn, so this is a logic error
		err := fmt.Errorf("%w: cannot record activity for unregistered user", domain.ErrUserNotFound)
		reporting.Report(ctx, err, map[string]string{
			"userID": fmt.Sprint(userID),
		})
		return err
	}

	_, err = txx.ExecContext(
		ctx,
		fmt.Sprintf(`INSERT INTO %s.activity_log
		(user_id, activity_type, occurred_at, points_earned)
		VALUES ($1, $2, $3, $4)`,
			pq.QuoteIdentifier(p.schema)),
		userID,
		string(kind),
		now,
		points,
	)
	if err != nil {
		err := fmt.Errorf("failed to insert activity log entry: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"userID": fmt.Sprint(userID),
		})
		return err
	}

	err = txx.Commit()
	if err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return err
	}

	return nil
}

func (p *Postgres) GetUser(ctx context.Context, userID int64) (domain.User, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetUser")
	defer span.End()

	var user dbUser
	err := p.db.QueryRowxContext(
		ctx,
		fmt.Sprintf("SELECT %s FROM %s.users WHERE user_id = $1", userColumns, pq.QuoteIdentifier(p.schema)),
		userID,
	).StructScan(&user)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		err := fmt.Errorf("failed to select user: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"userID": fmt.Sprint(userID),
		})
		return domain.User{}, err
	}

	return user.toDomain(), nil
}

func (p *Postgres) TotalUserCount(ctx context.Context) (int64, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.TotalUserCount")
	defer span.End()

	var count int64
	err := p.db.QueryRowxContext(
		ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s.users", pq.QuoteIdentifier(p.schema)),
	).Scan(&count)
	if err != nil {
		err := fmt.Errorf("failed to count users: %w", err)
		reporting.Report(ctx, err)
		return 0, err
	}

	return count, nil
}

func (p *Postgres) ListTopUsers(ctx context.Context, limit int) ([]domain.User, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.ListTopUsers")
	defer span.End()

	if limit <= 0 {
		err := fmt.Errorf("invalid limit: %d", limit)
		reporting.Report(ctx, err)
		return nil, err
	}

	dbUsers := make([]dbUser, 0, limit)
	err := p.db.SelectContext(
		ctx,
		&dbUsers,
		fmt.Sprintf(`SELECT %s FROM %s.users
		WHERE points > 0
		ORDER BY points DESC, last_activity DESC
		LIMIT $1`, userColumns, pq.QuoteIdentifier(p.schema)),
		limit,
	)
	if err != nil {
		err := fmt.Errorf("failed to select top users: %w", err)
		reporting.Report(ctx, err)
		return nil, err
	}

	users := make([]domain.User, 0, len(dbUsers))
	for _, user := range dbUsers {
		users = append(users, user.toDomain())
	}
	return users, nil
}

func (p *Postgres) GetRank(ctx context.Context, userID int64) (int64, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.GetRank")
	defer span.End()

	txx, err := p.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		err := fmt.Errorf("failed to start transaction: %w", err)
		reporting.Report(ctx, err)
		return 0, err
	}
	defer txx.Rollback()

	var points int64
	err = txx.QueryRowxContext(
		ctx,
		fmt.Sprintf("SELECT points FROM %s.users WHERE user_id = $1", pq.QuoteIdentifier(p.schema)),
		userID,
	).Scan(&points)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		err := fmt.Errorf("failed to select user points: %w", err)
		reporting.Report(ctx, err, map[string]string{
			"userID": fmt.Sprint(userID),
		})
		return 0, err
	}

	var rank int64
	err = txx.QueryRowxContext(
		ctx,
		fmt.Sprintf("SELECT 1 + COUNT(*) FROM %s.users WHERE points > $1", pq.QuoteIdentifier(p.schema)),
		points,
	).Scan(&rank)
	if err != nil {
		err := fmt.Errorf("failed to count higher ranked users: %w", err)
		reporting.Report(ctx, err)
		return 0, err
	}

	err = txx.Commit()
	if err != nil {
		err := fmt.Errorf("failed to commit transaction: %w", err)
		reporting.Report(ctx, err)
		return 0, err
	}

	return rank, nil
}

func (p *Postgres) TotalActivityCounts(ctx context.Context) (int64, int64, error) {
	ctx, span := p.tracer.Start(ctx, "Postgres.TotalActivityCounts")
	defer span.End()

	var messages, stickers int64
	err := p.db.QueryRowxContext(
		ctx,
		fmt.Sprintf(`SELECT
			COALESCE(SUM(message_count), 0), COALESCE(SUM(sticker_count), 0)
		FROM %s.users`, pq.QuoteIdentifier(p.schema)),
	).Scan(&messages, &stickers)
	if err != nil {
		err := fmt.Errorf("failed to sum activity counts: %w", err)
		reporting.Report(ctx, err)
		return 0, 0, err
	}

	return messages, stickers, nil
}
