package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/linkpulse/linkpulse/internal/shortener"
	"github.com/linkpulse/linkpulse/internal/visits"
)

// PostgresStore implements shortener.MappingStore and visits.Store over
// a pgx connection pool. See schema.sql for the expected tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Insert(ctx context.Context, m *shortener.Mapping) error {
	query := `
		INSERT INTO url_mappings (id, owner_email, long_url, short_code, topic, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (short_code) DO NOTHING
	`

	tag, err := p.pool.Exec(ctx, query,
		m.ID,
		m.Owner,
		m.LongURL,
		m.ShortCode,
		nullableTopic(m.Topic),
		m.CreatedAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrCodeExists
	}

	return nil
}

const mappingColumns = "id, owner_email, long_url, short_code, topic, created_at"

func (p *PostgresStore) FindByCode(ctx context.Context, code string) (*shortener.Mapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM url_mappings WHERE short_code = $1`

	return p.scanMapping(p.pool.QueryRow(ctx, query, code))
}

func (p *PostgresStore) FindByID(ctx context.Context, id string) (*shortener.Mapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM url_mappings WHERE id = $1`

	return p.scanMapping(p.pool.QueryRow(ctx, query, id))
}

func (p *PostgresStore) ListByOwner(ctx context.Context, owner string) ([]shortener.Mapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM url_mappings WHERE owner_email = $1 ORDER BY created_at`

	rows, err := p.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, err
	}

	return p.collectMappings(rows)
}

func (p *PostgresStore) ListByOwnerAndTopic(
	ctx context.Context, owner string, topic shortener.Topic,
) ([]shortener.Mapping, error) {
	query := `
		SELECT ` + mappingColumns + `
		FROM url_mappings
		WHERE owner_email = $1 AND topic = $2
		ORDER BY created_at
	`

	rows, err := p.pool.Query(ctx, query, owner, string(topic))
	if err != nil {
		return nil, err
	}

	return p.collectMappings(rows)
}

func (p *PostgresStore) scanMapping(row pgx.Row) (*shortener.Mapping, error) {
	var (
		mapping shortener.Mapping
		topic   *string
	)

	err := row.Scan(
		&mapping.ID,
		&mapping.Owner,
		&mapping.LongURL,
		&mapping.ShortCode,
		&topic,
		&mapping.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	if topic != nil {
		mapping.Topic = shortener.Topic(*topic)
	}

	return &mapping, nil
}

func (p *PostgresStore) collectMappings(rows pgx.Rows) ([]shortener.Mapping, error) {
	defer rows.Close()

	var mappings []shortener.Mapping

	for rows.Next() {
		mapping, err := p.scanMapping(rows)
		if err != nil {
			return nil, err
		}

		mappings = append(mappings, *mapping)
	}

	return mappings, rows.Err()
}

func (p *PostgresStore) InsertVisit(ctx context.Context, record *visits.Record) error {
	query := `
		INSERT INTO visits (
			mapping_id, visited_at, client_ip, user_agent,
			device, os, browser,
			country, region, city, latitude, longitude, timezone
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	var (
		country, region, city, timezone *string
		latitude, longitude             *float64
	)

	if loc := record.Location; loc != nil {
		country, region, city = &loc.Country, &loc.Region, &loc.City
		latitude, longitude = &loc.Latitude, &loc.Longitude
		timezone = &loc.Timezone
	}

	_, err := p.pool.Exec(ctx, query,
		record.MappingID,
		record.Timestamp,
		record.ClientIP,
		record.UserAgent,
		record.Device,
		record.OS,
		record.Browser,
		country, region, city, latitude, longitude, timezone,
	)

	return err
}

func (p *PostgresStore) CountVisits(ctx context.Context, filter visits.Filter) (int64, error) {
	if len(filter.MappingIDs) == 0 {
		return 0, nil
	}

	query, args := filteredQuery(`SELECT count(*) FROM visits`, filter)

	var count int64
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

func (p *PostgresStore) CountDistinctIPs(ctx context.Context, filter visits.Filter) (int64, error) {
	if len(filter.MappingIDs) == 0 {
		return 0, nil
	}

	query, args := filteredQuery(`SELECT count(DISTINCT client_ip) FROM visits`, filter)

	var count int64
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

func (p *PostgresStore) CountByField(
	ctx context.Context, filter visits.Filter, field visits.Field,
) ([]visits.FieldCount, error) {
	if len(filter.MappingIDs) == 0 {
		return nil, nil
	}

	var column string

	switch field {
	case visits.FieldOS:
		column = "os"
	case visits.FieldDevice:
		column = "device"
	default:
		return nil, fmt.Errorf("unsupported aggregation field %q", field)
	}

	base := fmt.Sprintf(
		`SELECT %s, count(*), count(DISTINCT client_ip) FROM visits`, column,
	)

	query, args := filteredQuery(base, filter)
	query += fmt.Sprintf(" GROUP BY %s ORDER BY %s", column, column)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []visits.FieldCount

	for rows.Next() {
		var fc visits.FieldCount
		if err := rows.Scan(&fc.Value, &fc.Clicks, &fc.UniqueIPs); err != nil {
			return nil, err
		}

		counts = append(counts, fc)
	}

	return counts, rows.Err()
}

func (p *PostgresStore) CountByDay(ctx context.Context, filter visits.Filter) ([]visits.DailyCount, error) {
	if len(filter.MappingIDs) == 0 {
		return nil, nil
	}

	query, args := filteredQuery(
		`SELECT to_char(visited_at, 'YYYY-MM-DD') AS day, count(*) FROM visits`, filter,
	)
	query += " GROUP BY day ORDER BY day"

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []visits.DailyCount

	for rows.Next() {
		var dc visits.DailyCount
		if err := rows.Scan(&dc.Date, &dc.Clicks); err != nil {
			return nil, err
		}

		counts = append(counts, dc)
	}

	return counts, rows.Err()
}

func (p *PostgresStore) GroupByLocation(
	ctx context.Context, filter visits.Filter,
) ([]visits.LocationGroup, error) {
	if len(filter.MappingIDs) == 0 {
		return nil, nil
	}

	query, args := filteredQuery(
		`SELECT country, coalesce(region, ''), coalesce(city, ''),
			count(*), count(DISTINCT client_ip), max(visited_at)
		FROM visits`, filter,
	)
	// Visits without a resolved location carry no country and are excluded.
	query += " AND country IS NOT NULL GROUP BY 1, 2, 3 ORDER BY count(*) DESC"

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []visits.LocationGroup

	for rows.Next() {
		var group visits.LocationGroup

		err := rows.Scan(
			&group.Country, &group.Region, &group.City,
			&group.Clicks, &group.UniqueIPs, &group.LastVisit,
		)
		if err != nil {
			return nil, err
		}

		groups = append(groups, group)
	}

	return groups, rows.Err()
}

// filteredQuery appends the visit filter as a WHERE clause and returns
// the query with its positional arguments.
func filteredQuery(base string, filter visits.Filter) (string, []any) {
	query := base + " WHERE mapping_id = ANY($1)"
	args := []any{filter.MappingIDs}

	if !filter.Since.IsZero() {
		query += " AND visited_at >= $2"
		args = append(args, filter.Since)
	}

	return query, args
}

func nullableTopic(t shortener.Topic) *string {
	if t == "" {
		return nil
	}

	s := string(t)

	return &s
}

// Compile-time checks.
var (
	_ shortener.MappingStore = (*PostgresStore)(nil)
	_ visits.Store           = (*PostgresStore)(nil)
)
