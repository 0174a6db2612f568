package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"EnergyForecast/internal/domain/models"
	domrepo "EnergyForecast/internal/domain/repository"
	pkgch "EnergyForecast/pkg/clickhouse"
	applogger "EnergyForecast/pkg/logger"
)

var _ domrepo.ReadingStore = (*CHReadingStore)(nil)

// Later inserts for the same (meter_id, date) replace earlier ones on merge; reads use FINAL.
var chSchema = []string{
	`CREATE TABLE IF NOT EXISTS meter_readings (
		meter_id    LowCardinality(String),
		date        Date,
		total_units Float64,
		updated_at  DateTime64(3) DEFAULT now64(3)
	) ENGINE = ReplacingMergeTree(updated_at)
	ORDER BY (meter_id, date)`,
}

// CHReadingStore implements ReadingStore backed by ClickHouse.
type CHReadingStore struct {
	client *pkgch.Client
	conn   driver.Conn
	l      *applogger.Logger
}

func NewCHReadingStore(ch *pkgch.Client, l *applogger.Logger) *CHReadingStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHReadingStore{client: ch, conn: ch.Conn(), l: l}
}

func (s *CHReadingStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, chSchema)
}

func (s *CHReadingStore) UpsertReadings(ctx context.Context, meterID string, records []models.DailyRecord) error {
	if len(records) == 0 {
		return nil
	}
	start := time.Now()
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO meter_readings (meter_id, date, total_units, updated_at)")
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	now := time.Now().UTC()
	for _, r := range records {
		if err := batch.Append(meterID, r.Date, r.TotalUnits, now); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append reading: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		s.l.Error("clickhouse upsert_readings send error",
			applogger.String("meter_id", meterID),
			applogger.Int("rows", len(records)),
			applogger.Error(err))
		return fmt.Errorf("send batch: %w", err)
	}
	s.l.Debug("clickhouse upsert_readings",
		applogger.String("meter_id", meterID),
		applogger.Int("rows", len(records)),
		applogger.Duration("took", time.Since(start)))
	return nil
}

func (s *CHReadingStore) RecentReadings(ctx context.Context, meterID string, limit int) ([]models.DailyRecord, error) {
	const q = `
		SELECT date, total_units
		FROM meter_readings FINAL
		WHERE meter_id = ?
		ORDER BY date DESC
		LIMIT ?`
	rows, err := s.conn.Query(ctx, q, meterID, uint64(limit))
	if err != nil {
		s.l.Error("clickhouse recent_readings query error",
			applogger.String("meter_id", meterID),
			applogger.Error(err))
		return nil, fmt.Errorf("recent readings: %w", err)
	}
	defer rows.Close()

	out := make([]models.DailyRecord, 0, limit)
	for rows.Next() {
		var r models.DailyRecord
		if err := rows.Scan(&r.Date, &r.TotalUnits); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		r.Date = r.Date.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	reverse(out)
	return out, nil
}

func (s *CHReadingStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *CHReadingStore) Close() error {
	return s.client.Close()
}

func reverse(rs []models.DailyRecord) {
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
}
