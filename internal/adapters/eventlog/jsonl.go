package eventlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"eksi-quake-watch/internal/domain"
)

// JSONL — журнал срабатываний: по одной JSON-записи на строку, только
// дозапись. Успешный Record означает, что строка дошла до диска: файл
// синхронизируется перед возвратом. Отдельно пишется человекочитаемый
// алерт в лог.
type JSONL struct {
	mu   sync.Mutex
	file *os.File
	log  zerolog.Logger
}

var _ domain.DetectionLog = (*JSONL)(nil)

// Open открывает журнал в режиме дозаписи, создавая файл при необходимости.
func Open(path string, logger zerolog.Logger) (*JSONL, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("открытие журнала %s: %w", path, err)
	}
	return &JSONL{file: file, log: logger}, nil
}

// Record дозаписывает срабатывание и печатает алерт.
func (j *JSONL) Record(ctx context.Context, rec domain.DetectionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("сериализация записи: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.file.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("запись в журнал: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("синхронизация журнала: %w", err)
	}

	j.emitAlert(rec)
	return nil
}

// Close закрывает файл журнала.
func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

func (j *JSONL) emitAlert(rec domain.DetectionRecord) {
	j.log.Info().
		Int("day", rec.Info.Day).
		Str("month", rec.Info.MonthName).
		Int("year", rec.Info.Year).
		Str("province", rec.Info.Province).
		Str("confidence", string(rec.Info.Confidence)).
		Str("title", rec.Baslik.Title).
		Str("url", rec.Baslik.URL).
		Str("entry_count", rec.Baslik.EntryCount).
		Msg("🚨 обнаружено землетрясение")
}

// ReadRecords читает ранее сохранённые срабатывания для регидратации
// дедупликации после рестарта. Отсутствующий файл — не ошибка.
// Повреждённые строки пропускаются: журнал мог оборваться на середине
// записи при падении процесса.
func ReadRecords(path string) ([]domain.DetectionRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("чтение журнала %s: %w", path, err)
	}
	defer file.Close()

	var records []domain.DetectionRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec domain.DetectionRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("чтение журнала %s: %w", path, err)
	}
	return records, nil
}
