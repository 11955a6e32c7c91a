package db

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/sbilibin2017/gophrt/internal/models"
)

const upsertSampleQuery = `
	INSERT INTO samples (
		kind, service_id, recorded, pop, origin,
		requests, resp_body_bytes, status_2xx, status_3xx, status_4xx, status_5xx, payload
	)
	VALUES (
		:kind, :service_id, :recorded, :pop, :origin,
		:requests, :resp_body_bytes, :status_2xx, :status_3xx, :status_4xx, :status_5xx, :payload
	)
	ON CONFLICT (kind, service_id, recorded, pop, origin) DO UPDATE
	SET requests = excluded.requests,
		resp_body_bytes = excluded.resp_body_bytes,
		status_2xx = excluded.status_2xx,
		status_3xx = excluded.status_3xx,
		status_4xx = excluded.status_4xx,
		status_5xx = excluded.status_5xx,
		payload = excluded.payload
`

const selectSamplesQuery = `
	SELECT kind, service_id, recorded, pop, origin,
		requests, resp_body_bytes, status_2xx, status_3xx, status_4xx, status_5xx, payload
	FROM samples
`

// SampleRepository stores samples in a SQL database.
type SampleRepository struct {
	db *sqlx.DB
}

// NewSampleRepository creates a new SampleRepository with the given database connection.
func NewSampleRepository(db *sqlx.DB) *SampleRepository {
	return &SampleRepository{db: db}
}

// Save upserts samples in one transaction.
func (r *SampleRepository) Save(
	ctx context.Context,
	samples []*models.Sample,
) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, upsertSampleQuery)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err := stmt.ExecContext(ctx, s); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// List returns samples matching filter, newest first.
func (r *SampleRepository) List(
	ctx context.Context,
	filter models.SampleFilter,
) ([]*models.Sample, error) {
	var (
		where []string
		args  []any
	)
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.ServiceID != "" {
		where = append(where, "service_id = ?")
		args = append(args, filter.ServiceID)
	}
	if filter.POP != "" {
		where = append(where, "pop = ?")
		args = append(args, filter.POP)
	}
	if filter.AggregateOnly {
		where = append(where, "pop = ''")
	}
	if filter.Origin != "" {
		where = append(where, "origin = ?")
		args = append(args, filter.Origin)
	}
	if filter.Since > 0 {
		where = append(where, "recorded >= ?")
		args = append(args, filter.Since)
	}

	var query strings.Builder
	query.WriteString(selectSamplesQuery)
	if len(where) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(where, " AND "))
	}
	query.WriteString(" ORDER BY recorded DESC, pop ASC, origin ASC")
	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	var rows []models.Sample
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query.String()), args...); err != nil {
		return nil, err
	}

	samples := make([]*models.Sample, 0, len(rows))
	for i := range rows {
		samples = append(samples, &rows[i])
	}
	return samples, nil
}

// DeleteBefore drops samples recorded before the given second.
func (r *SampleRepository) DeleteBefore(
	ctx context.Context,
	recorded uint64,
) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM samples WHERE recorded < ?`), recorded)
	return err
}

// Ping checks the database connection.
func (r *SampleRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
