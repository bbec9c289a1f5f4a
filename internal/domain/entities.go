package domain

import (
	"fmt"
	"time"
)

// Baslik описывает заголовок из списка гюндема на момент наблюдения.
type Baslik struct {
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	EntryCount string    `json:"entry_count"`
	Timestamp  time.Time `json:"timestamp"`
}

// Confidence — эвристическая уверенность, что заголовок описывает землетрясение.
type Confidence string

const (
	// ConfidenceHigh — в заголовке присутствует явное ключевое слово.
	ConfidenceHigh Confidence = "high"
	// ConfidenceMedium — дата и провинция совпали, но ключевого слова нет.
	ConfidenceMedium Confidence = "medium"
)

// EarthquakeInfo содержит данные, извлечённые из заголовка.
// Значение существует только если день, месяц, год и провинция совпали одновременно.
type EarthquakeInfo struct {
	Day        int        `json:"day"`
	Month      int        `json:"month"`
	MonthName  string     `json:"month_name"`
	Year       int        `json:"year"`
	Province   string     `json:"province"`
	HasKeyword bool       `json:"has_earthquake_keyword"`
	Confidence Confidence `json:"confidence"`
}

// DetectionRecord — единица персистентности: одно подтверждённое событие.
// Создаётся ровно один раз на событие и никогда не изменяется.
type DetectionRecord struct {
	DetectedAt time.Time      `json:"detected_at"`
	Baslik     Baslik         `json:"baslik"`
	Info       EarthquakeInfo `json:"earthquake_info"`
}

// EventKey идентифицирует уникальное землетрясение между циклами опроса.
// Провинция хранится в ASCII-форме, чтобы разные написания схлопывались в один ключ.
type EventKey struct {
	Day      int
	Month    int
	Year     int
	Province string
}

// String возвращает каноничную форму ключа.
func (k EventKey) String() string {
	return fmt.Sprintf("%d-%d-%d-%s", k.Day, k.Month, k.Year, k.Province)
}

// AlertEvent — полезная нагрузка уведомления о новом событии.
type AlertEvent struct {
	EventID string          `json:"event_id"`
	Record  DetectionRecord `json:"record"`
}
