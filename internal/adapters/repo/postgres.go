package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"eksi-quake-watch/internal/domain"
	"eksi-quake-watch/internal/infra/metrics"
	"eksi-quake-watch/internal/usecase/detect"
)

// Postgres хранит срабатывания в БД как дополнительный приёмник
// и источник регидратации дедупликации. Контракт долговечности
// несёт JSONL журнал; БД — best-effort.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.DetectionRepo = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// EnsureSchema создаёт таблицу срабатываний, если её ещё нет.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	start := time.Now()
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS detections (
    event_id      UUID PRIMARY KEY,
    detected_at   TIMESTAMPTZ NOT NULL,
    title         TEXT NOT NULL,
    url           TEXT NOT NULL,
    entry_count   TEXT NOT NULL,
    observed_at   TIMESTAMPTZ NOT NULL,
    day           INT NOT NULL,
    month         INT NOT NULL,
    month_name    TEXT NOT NULL,
    year          INT NOT NULL,
    province      TEXT NOT NULL,
    province_key  TEXT NOT NULL,
    has_keyword   BOOLEAN NOT NULL,
    confidence    TEXT NOT NULL,
    UNIQUE (day, month, year, province_key)
)
`)
	metrics.ObserveNetworkRequest("postgres", "ensure_schema", "detections", start, err)
	if err != nil {
		return fmt.Errorf("создание схемы: %w", err)
	}
	return nil
}

// InsertDetection сохраняет срабатывание. Конфликт по ключу события
// игнорируется: запись создаётся ровно один раз на событие.
func (p *Postgres) InsertDetection(ctx context.Context, eventID string, rec domain.DetectionRecord) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	key := detect.Key(rec.Info)
	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO detections (event_id, detected_at, title, url, entry_count, observed_at,
                        day, month, month_name, year, province, province_key,
                        has_keyword, confidence)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (day, month, year, province_key) DO NOTHING
`,
		eventID, rec.DetectedAt, rec.Baslik.Title, rec.Baslik.URL, rec.Baslik.EntryCount,
		rec.Baslik.Timestamp, rec.Info.Day, rec.Info.Month, rec.Info.MonthName,
		rec.Info.Year, rec.Info.Province, key.Province, rec.Info.HasKeyword,
		string(rec.Info.Confidence))
	metrics.ObserveNetworkRequest("postgres", "insert_detection", "detections", start, err)
	if err != nil {
		return fmt.Errorf("сохранение срабатывания: %w", err)
	}
	return nil
}

// ListDetections возвращает последние срабатывания, новые первыми.
func (p *Postgres) ListDetections(ctx context.Context, limit int) ([]domain.DetectionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT detected_at, title, url, entry_count, observed_at,
       day, month, month_name, year, province, has_keyword, confidence
FROM detections
ORDER BY detected_at DESC
LIMIT $1
`, limit)
	metrics.ObserveNetworkRequest("postgres", "list_detections", "detections", start, err)
	if err != nil {
		return nil, fmt.Errorf("выборка срабатываний: %w", err)
	}
	defer rows.Close()

	var records []domain.DetectionRecord
	for rows.Next() {
		var rec domain.DetectionRecord
		var confidence string
		if err := rows.Scan(
			&rec.DetectedAt, &rec.Baslik.Title, &rec.Baslik.URL, &rec.Baslik.EntryCount,
			&rec.Baslik.Timestamp, &rec.Info.Day, &rec.Info.Month, &rec.Info.MonthName,
			&rec.Info.Year, &rec.Info.Province, &rec.Info.HasKeyword, &confidence,
		); err != nil {
			return nil, fmt.Errorf("чтение строки: %w", err)
		}
		rec.Info.Confidence = domain.Confidence(confidence)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("обход строк: %w", err)
	}
	return records, nil
}

// ListSeenKeys возвращает ключи всех сохранённых событий для регидратации.
func (p *Postgres) ListSeenKeys(ctx context.Context) ([]domain.EventKey, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()
	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT day, month, year, province_key FROM detections`)
	metrics.ObserveNetworkRequest("postgres", "list_seen_keys", "detections", start, err)
	if err != nil {
		return nil, fmt.Errorf("выборка ключей: %w", err)
	}
	defer rows.Close()

	var keys []domain.EventKey
	for rows.Next() {
		var key domain.EventKey
		if err := rows.Scan(&key.Day, &key.Month, &key.Year, &key.Province); err != nil {
			return nil, fmt.Errorf("чтение ключа: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("обход ключей: %w", err)
	}
	return keys, nil
}
