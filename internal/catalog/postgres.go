package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lib/pq"

	"github.com/sceneseek/sceneseek/internal/event"
	"github.com/sceneseek/sceneseek/internal/search"
	"github.com/sceneseek/sceneseek/internal/tracing"
)

const eventColumns = `id, name, start_at, end_at, plain_date, time_text, venue, city, region,
	category, styles, price_min, price_max, currency, price_text, organizer, description, ingested_at`

// PostgresRepository implements Repository using PostgreSQL with full
// transaction support for batch upserts.
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
	stats  *UpsertStats
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{
		db:     db,
		logger: logger,
		stats:  NewUpsertStats(),
	}
}

// Stats exposes the cumulative upsert counters.
func (r *PostgresRepository) Stats() *UpsertStats {
	return r.stats
}

// Upsert inserts or updates a batch of events in a single transaction.
// The batch is all-or-nothing: any failure rolls back every event.
func (r *PostgresRepository) Upsert(ctx context.Context, events []event.Event) (err error) {
	if len(events) == 0 {
		return nil
	}

	ctx, endSpan := tracing.StartDBSpan(ctx, "events", tracing.DBOperationUpsert)
	defer func() { endSpan(err) }()

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// No-op after a successful commit.
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			r.logger.Warn("failed to rollback transaction",
				slog.String("error", err.Error()))
		}
	}()

	var inserted, updated int
	for i := range events {
		isNew, err := r.upsertOne(ctx, tx, &events[i])
		if err != nil {
			return fmt.Errorf("failed to upsert event %s: %w", events[i].ID, err)
		}
		if isNew {
			inserted++
			r.stats.RecordInsert()
		} else {
			updated++
			r.stats.RecordUpdate()
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("event batch upserted",
		slog.Int("inserted", inserted),
		slog.Int("updated", updated))
	return nil
}

func (r *PostgresRepository) upsertOne(ctx context.Context, tx *sql.Tx, ev *event.Event) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, ev.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check event existence: %w", err)
	}

	if !exists {
		insertQuery := `
			INSERT INTO events (` + eventColumns + `, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW(), NOW())
		`
		_, err = tx.ExecContext(ctx, insertQuery,
			ev.ID, ev.Name, ev.StartAt, ev.EndAt, nullString(ev.PlainDate), nullString(ev.TimeText),
			nullString(ev.Venue), nullString(ev.City), nullString(ev.Region), nullString(ev.Category),
			pq.Array(ev.Styles), ev.PriceMin, ev.PriceMax, nullString(ev.Currency),
			nullString(ev.PriceText), nullString(ev.Organizer), nullString(ev.Description), ev.IngestedAt)
		if err != nil {
			return false, fmt.Errorf("failed to insert event: %w", err)
		}
		return true, nil
	}

	updateQuery := `
		UPDATE events SET
			name = $2, start_at = $3, end_at = $4, plain_date = $5, time_text = $6,
			venue = $7, city = $8, region = $9, category = $10, styles = $11,
			price_min = $12, price_max = $13, currency = $14, price_text = $15,
			organizer = $16, description = $17, ingested_at = $18, updated_at = NOW()
		WHERE id = $1
	`
	_, err = tx.ExecContext(ctx, updateQuery,
		ev.ID, ev.Name, ev.StartAt, ev.EndAt, nullString(ev.PlainDate), nullString(ev.TimeText),
		nullString(ev.Venue), nullString(ev.City), nullString(ev.Region), nullString(ev.Category),
		pq.Array(ev.Styles), ev.PriceMin, ev.PriceMax, nullString(ev.Currency),
		nullString(ev.PriceText), nullString(ev.Organizer), nullString(ev.Description), ev.IngestedAt)
	if err != nil {
		return false, fmt.Errorf("failed to update event: %w", err)
	}
	return false, nil
}

// Search returns candidates for a normalized filter set. The SQL filters
// are deliberately coarse: rows whose start day only exists as a legacy
// plain_date string pass the date conditions unfiltered, and price bounds
// are not applied at all, because both need the application-side
// resolution rules. The pipeline re-verifies every candidate.
func (r *PostgresRepository) Search(ctx context.Context, f search.Filters) (events []event.Event, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "events", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Text != "" {
		p := arg("%" + f.Text + "%")
		conds = append(conds, fmt.Sprintf(`(name ILIKE %[1]s OR category ILIKE %[1]s OR venue ILIKE %[1]s
			OR region ILIKE %[1]s OR organizer ILIKE %[1]s
			OR EXISTS (SELECT 1 FROM unnest(styles) AS s WHERE s ILIKE %[1]s))`, p))
	}
	if f.DateFrom != nil {
		conds = append(conds, fmt.Sprintf(`(start_at IS NULL OR start_at >= %s)`, arg(*f.DateFrom)))
	}
	if f.DateTo != nil {
		conds = append(conds, fmt.Sprintf(`(start_at IS NULL OR start_at < %s)`, arg(f.DateTo.AddDate(0, 0, 1))))
	}
	if f.Region != "" {
		conds = append(conds, fmt.Sprintf(`LOWER(region) = LOWER(%s)`, arg(f.Region)))
	}
	if f.Category != "" {
		conds = append(conds, fmt.Sprintf(`category = %s`, arg(f.Category)))
	}
	if len(f.Styles) > 0 {
		var styleConds []string
		for _, style := range f.Styles {
			p := arg("%" + style + "%")
			styleConds = append(styleConds, fmt.Sprintf(`EXISTS (SELECT 1 FROM unnest(styles) AS s WHERE s ILIKE %s)`, p))
		}
		conds = append(conds, "("+strings.Join(styleConds, " OR ")+")")
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY start_at ASC NULLS LAST, plain_date ASC NULLS LAST, name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// MostRecent returns up to limit events by descending start order.
func (r *PostgresRepository) MostRecent(ctx context.Context, limit int) (events []event.Event, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "events", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := `SELECT ` + eventColumns + ` FROM events
		ORDER BY start_at DESC NULLS LAST, plain_date DESC NULLS LAST, name ASC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query most recent events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetByID retrieves one event. Returns ErrNotFound when absent.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)

	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return ev, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*event.Event, error) {
	var ev event.Event
	var plainDate, timeText, venue, city, region, category sql.NullString
	var currency, priceText, organizer, description sql.NullString
	var startAt, endAt sql.NullTime
	var priceMin, priceMax sql.NullFloat64
	var styles pq.StringArray

	err := row.Scan(&ev.ID, &ev.Name, &startAt, &endAt, &plainDate, &timeText,
		&venue, &city, &region, &category, &styles, &priceMin, &priceMax,
		&currency, &priceText, &organizer, &description, &ev.IngestedAt)
	if err != nil {
		return nil, err
	}

	if startAt.Valid {
		t := startAt.Time
		ev.StartAt = &t
	}
	if endAt.Valid {
		t := endAt.Time
		ev.EndAt = &t
	}
	if priceMin.Valid {
		v := priceMin.Float64
		ev.PriceMin = &v
	}
	if priceMax.Valid {
		v := priceMax.Float64
		ev.PriceMax = &v
	}
	ev.PlainDate = plainDate.String
	ev.TimeText = timeText.String
	ev.Venue = venue.String
	ev.City = city.String
	ev.Region = region.String
	ev.Category = category.String
	ev.Currency = currency.String
	ev.PriceText = priceText.String
	ev.Organizer = organizer.String
	ev.Description = description.String
	ev.Styles = []string(styles)
	if len(ev.Styles) == 0 {
		ev.Styles = nil
	}
	return &ev, nil
}

func scanEvents(rows *sql.Rows) ([]event.Event, error) {
	var events []event.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
