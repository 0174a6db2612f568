package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"EnergyForecast/internal/domain/models"
	domrepo "EnergyForecast/internal/domain/repository"
	applogger "EnergyForecast/pkg/logger"
)

var _ domrepo.ReadingStore = (*PGReadingStore)(nil)

const pgSchema = `
CREATE TABLE IF NOT EXISTS meter_readings (
	meter_id    TEXT             NOT NULL,
	date        DATE             NOT NULL,
	total_units DOUBLE PRECISION NOT NULL,
	updated_at  TIMESTAMPTZ      NOT NULL DEFAULT now(),
	PRIMARY KEY (meter_id, date)
)`

const pgUpsert = `
INSERT INTO meter_readings (meter_id, date, total_units)
VALUES ($1, $2, $3)
ON CONFLICT (meter_id, date)
DO UPDATE SET total_units = EXCLUDED.total_units, updated_at = now()`

// PGReadingStore implements ReadingStore backed by PostgreSQL.
type PGReadingStore struct {
	pool *pgxpool.Pool
	l    *applogger.Logger
}

func NewPGReadingStore(pool *pgxpool.Pool, l *applogger.Logger) *PGReadingStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &PGReadingStore{pool: pool, l: l}
}

func (s *PGReadingStore) Init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// UpsertReadings writes all records in one transaction.
func (s *PGReadingStore) UpsertReadings(ctx context.Context, meterID string, records []models.DailyRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(pgUpsert, meterID, r.Date, r.TotalUnits)
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		s.l.Error("postgres upsert_readings error",
			applogger.String("meter_id", meterID),
			applogger.Int("rows", len(records)),
			applogger.Error(err))
		return fmt.Errorf("upsert readings: %w", err)
	}
	return nil
}

func (s *PGReadingStore) RecentReadings(ctx context.Context, meterID string, limit int) ([]models.DailyRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date, total_units
		FROM meter_readings
		WHERE meter_id = $1
		ORDER BY date DESC
		LIMIT $2`, meterID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent readings: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.DailyRecord, error) {
		var r models.DailyRecord
		err := row.Scan(&r.Date, &r.TotalUnits)
		r.Date = r.Date.UTC()
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan readings: %w", err)
	}
	reverse(out)
	return out, nil
}

func (s *PGReadingStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PGReadingStore) Close() error {
	s.pool.Close()
	return nil
}
