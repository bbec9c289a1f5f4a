package domain

import "context"

// GundemFetcher возвращает текущий список заголовков гюндема.
type GundemFetcher interface {
	FetchGundem(ctx context.Context) ([]Baslik, error)
}

// DedupStore отслеживает уже зафиксированные события.
// MarkIfNew атомарно выполняет проверку и пометку, чтобы при
// параллельном опросе нескольких источников не было двойных алертов.
type DedupStore interface {
	IsNew(key EventKey) bool
	MarkSeen(key EventKey)
	MarkIfNew(key EventKey) bool
}

// DetectionLog — журнал подтверждённых срабатываний, только добавление.
// Успешный возврат означает, что запись дошла до диска.
type DetectionLog interface {
	Record(ctx context.Context, rec DetectionRecord) error
}

// DetectionRepo хранит срабатывания в БД и отдаёт ключи для регидратации.
type DetectionRepo interface {
	InsertDetection(ctx context.Context, eventID string, rec DetectionRecord) error
	ListDetections(ctx context.Context, limit int) ([]DetectionRecord, error)
	ListSeenKeys(ctx context.Context) ([]EventKey, error)
}

// AlertNotifier доставляет уведомление о новом событии во внешний канал.
type AlertNotifier interface {
	Notify(ctx context.Context, event AlertEvent) error
}
