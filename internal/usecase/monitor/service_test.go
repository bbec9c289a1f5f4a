package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"eksi-quake-watch/internal/adapters/dedup"
	"eksi-quake-watch/internal/domain"
)

type fakeFetcher struct {
	mu      sync.Mutex
	batches [][]domain.Baslik
	errs    []error
	calls   int
}

func (f *fakeFetcher) FetchGundem(ctx context.Context) ([]domain.Baslik, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	if idx < len(f.batches) {
		return f.batches[idx], nil
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	return f.batches[len(f.batches)-1], nil
}

type fakeLog struct {
	mu      sync.Mutex
	records []domain.DetectionRecord
	failFor int
}

func (f *fakeLog) Record(ctx context.Context, rec domain.DetectionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor > 0 {
		f.failFor--
		return errors.New("диск недоступен")
	}
	f.records = append(f.records, rec)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []domain.AlertEvent
	err    error
}

func (f *fakeNotifier) Notify(ctx context.Context, event domain.AlertEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func baslik(title string) domain.Baslik {
	return domain.Baslik{
		Title:      title,
		URL:        "/baslik/test--1",
		EntryCount: "42",
		Timestamp:  time.Now(),
	}
}

func newTestService(fetcher domain.GundemFetcher, store domain.DedupStore, detlog domain.DetectionLog, opts Options) *Service {
	return NewService(fetcher, store, detlog, zerolog.Nop(), opts)
}

func TestRunOnceDetectsAndRecords(t *testing.T) {
	fetcher := &fakeFetcher{batches: [][]domain.Baslik{{
		baslik("gram altın"),
		baslik("6 şubat 2025 kahramanmaraş depremi"),
		baslik("yarın hava güzel olacak"),
	}}}
	detlog := &fakeLog{}
	notifier := &fakeNotifier{}
	svc := newTestService(fetcher, dedup.NewMemory(), detlog, Options{Notifiers: []domain.AlertNotifier{notifier}})

	svc.RunOnce(context.Background())

	if len(detlog.records) != 1 {
		t.Fatalf("ожидали 1 запись, получили %d", len(detlog.records))
	}
	rec := detlog.records[0]
	if rec.Info.Province != "kahramanmaraş" || rec.Info.Confidence != domain.ConfidenceHigh {
		t.Fatalf("неверная запись: %+v", rec.Info)
	}
	if rec.DetectedAt.IsZero() {
		t.Fatalf("ожидали время обнаружения")
	}
	if len(notifier.events) != 1 {
		t.Fatalf("ожидали 1 уведомление, получили %d", len(notifier.events))
	}
	if notifier.events[0].EventID == "" {
		t.Fatalf("ожидали идентификатор события")
	}
}

func TestRunOnceIdempotentAcrossCycles(t *testing.T) {
	// тот же заголовок в двух последовательных циклах — одна запись
	fetcher := &fakeFetcher{batches: [][]domain.Baslik{
		{baslik("6 şubat 2025 kahramanmaraş depremi")},
		{baslik("6 şubat 2025 kahramanmaraş depremi (123)")},
	}}
	detlog := &fakeLog{}
	notifier := &fakeNotifier{}
	svc := newTestService(fetcher, dedup.NewMemory(), detlog, Options{Notifiers: []domain.AlertNotifier{notifier}})

	svc.RunOnce(context.Background())
	svc.RunOnce(context.Background())

	if len(detlog.records) != 1 {
		t.Fatalf("ожидали ровно 1 запись, получили %d", len(detlog.records))
	}
	if len(notifier.events) != 1 {
		t.Fatalf("ожидали ровно 1 уведомление, получили %d", len(notifier.events))
	}
}

func TestRunOnceDedupAcrossSpellings(t *testing.T) {
	// одна дата в турецком и ASCII написании — одно событие
	fetcher := &fakeFetcher{batches: [][]domain.Baslik{{
		baslik("6 şubat 2025 kahramanmaraş depremi"),
		baslik("6 subat 2025 kahramanmaras depremi"),
	}}}
	detlog := &fakeLog{}
	svc := newTestService(fetcher, dedup.NewMemory(), detlog, Options{})

	svc.RunOnce(context.Background())

	if len(detlog.records) != 1 {
		t.Fatalf("ожидали 1 запись, получили %d", len(detlog.records))
	}
}

func TestRunOnceRestartRecovery(t *testing.T) {
	store := dedup.NewMemory()
	store.Rehydrate([]domain.EventKey{{Day: 6, Month: 2, Year: 2025, Province: "kahramanmaras"}})

	fetcher := &fakeFetcher{batches: [][]domain.Baslik{{
		baslik("6 şubat 2025 kahramanmaraş depremi"),
	}}}
	detlog := &fakeLog{}
	svc := newTestService(fetcher, store, detlog, Options{})

	svc.RunOnce(context.Background())

	if len(detlog.records) != 0 {
		t.Fatalf("регидратированное событие не должно писаться повторно, получили %d", len(detlog.records))
	}
}

func TestRunOnceFetchFailureIsNotFatal(t *testing.T) {
	fetcher := &fakeFetcher{
		errs: []error{errors.New("сеть недоступна"), nil},
		batches: [][]domain.Baslik{
			nil,
			{baslik("21 ekim 2023 izmir tartışması")},
		},
	}
	detlog := &fakeLog{}
	svc := newTestService(fetcher, dedup.NewMemory(), detlog, Options{})

	svc.RunOnce(context.Background())
	if len(detlog.records) != 0 {
		t.Fatalf("после ошибки опроса не должно быть записей")
	}

	svc.RunOnce(context.Background())
	if len(detlog.records) != 1 {
		t.Fatalf("следующий цикл должен отработать штатно, получили %d записей", len(detlog.records))
	}
	if detlog.records[0].Info.Confidence != domain.ConfidenceMedium {
		t.Fatalf("без ключевого слова ожидали medium: %+v", detlog.records[0].Info)
	}
}

func TestPersistRetriesOnce(t *testing.T) {
	fetcher := &fakeFetcher{batches: [][]domain.Baslik{{
		baslik("6 şubat 2025 kahramanmaraş depremi"),
	}}}
	detlog := &fakeLog{failFor: 1}
	notifier := &fakeNotifier{}
	svc := newTestService(fetcher, dedup.NewMemory(), detlog, Options{Notifiers: []domain.AlertNotifier{notifier}})

	svc.RunOnce(context.Background())

	if len(detlog.records) != 1 {
		t.Fatalf("повтор должен был записать событие, получили %d", len(detlog.records))
	}
	if len(notifier.events) != 1 {
		t.Fatalf("после успешного повтора уведомление должно уйти")
	}
}

func TestPersistDropsAfterSecondFailure(t *testing.T) {
	fetcher := &fakeFetcher{batches: [][]domain.Baslik{
		{baslik("6 şubat 2025 kahramanmaraş depremi")},
		{baslik("6 şubat 2025 kahramanmaraş depremi")},
	}}
	detlog := &fakeLog{failFor: 2}
	notifier := &fakeNotifier{}
	svc := newTestService(fetcher, dedup.NewMemory(), detlog, Options{Notifiers: []domain.AlertNotifier{notifier}})

	svc.RunOnce(context.Background())
	if len(detlog.records) != 0 {
		t.Fatalf("после двух сбоев запись должна быть отброшена")
	}
	if len(notifier.events) != 0 {
		t.Fatalf("без записи в журнале уведомления не отправляются")
	}

	// ключ остаётся помеченным: событие не всплывает заново
	svc.RunOnce(context.Background())
	if len(detlog.records) != 0 {
		t.Fatalf("отброшенное событие не должно возвращаться в следующем цикле")
	}
}

func TestNotifierFailureDoesNotBlockOthers(t *testing.T) {
	fetcher := &fakeFetcher{batches: [][]domain.Baslik{{
		baslik("6 şubat 2025 kahramanmaraş depremi"),
	}}}
	detlog := &fakeLog{}
	broken := &fakeNotifier{err: errors.New("брокер недоступен")}
	healthy := &fakeNotifier{}
	svc := newTestService(fetcher, dedup.NewMemory(), detlog, Options{
		Notifiers: []domain.AlertNotifier{broken, healthy},
	})

	svc.RunOnce(context.Background())

	if len(detlog.records) != 1 {
		t.Fatalf("сбой нотификатора не должен влиять на журнал")
	}
	if len(healthy.events) != 1 {
		t.Fatalf("второй нотификатор должен получить событие")
	}
}

func TestRecordsKeepFetchOrder(t *testing.T) {
	fetcher := &fakeFetcher{batches: [][]domain.Baslik{{
		baslik("6 şubat 2025 kahramanmaraş depremi"),
		baslik("21 ekim 2023 izmir tartışması"),
		baslik("1 ocak 2024 van depremi"),
	}}}
	detlog := &fakeLog{}
	svc := newTestService(fetcher, dedup.NewMemory(), detlog, Options{})

	svc.RunOnce(context.Background())

	if len(detlog.records) != 3 {
		t.Fatalf("ожидали 3 записи, получили %d", len(detlog.records))
	}
	provinces := []string{"kahramanmaraş", "izmir", "van"}
	for i, want := range provinces {
		if detlog.records[i].Info.Province != want {
			t.Fatalf("нарушен порядок записей: позиция %d — %q", i, detlog.records[i].Info.Province)
		}
	}
}

func TestDateDriftFilter(t *testing.T) {
	fetcher := &fakeFetcher{batches: [][]domain.Baslik{{
		baslik("6 şubat 2025 kahramanmaraş depremi"),
		baslik("15 mart 2030 ankara depremi"),
	}}}
	detlog := &fakeLog{}
	svc := newTestService(fetcher, dedup.NewMemory(), detlog, Options{
		MaxDateDrift: 24 * time.Hour,
	})
	svc.now = func() time.Time {
		return time.Date(2025, 2, 7, 12, 0, 0, 0, time.UTC)
	}

	svc.RunOnce(context.Background())

	if len(detlog.records) != 1 {
		t.Fatalf("ожидали 1 запись в пределах окна, получили %d", len(detlog.records))
	}
	if detlog.records[0].Info.Year != 2025 {
		t.Fatalf("прошла неверная запись: %+v", detlog.records[0].Info)
	}
}

func TestDateDriftRejectsImpossibleDate(t *testing.T) {
	fetcher := &fakeFetcher{batches: [][]domain.Baslik{{
		baslik("30 şubat 2025 istanbul depremi"),
	}}}
	detlog := &fakeLog{}
	svc := newTestService(fetcher, dedup.NewMemory(), detlog, Options{
		MaxDateDrift: 365 * 24 * time.Hour,
	})
	svc.now = func() time.Time {
		return time.Date(2025, 2, 7, 12, 0, 0, 0, time.UTC)
	}

	svc.RunOnce(context.Background())

	if len(detlog.records) != 0 {
		t.Fatalf("30 февраля не должно проходить фильтр дат")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	fetcher := &fakeFetcher{batches: [][]domain.Baslik{{
		baslik("6 şubat 2025 kahramanmaraş depremi"),
	}}}
	detlog := &fakeLog{}
	svc := newTestService(fetcher, dedup.NewMemory(), detlog, Options{
		Interval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run не завершился после отмены контекста")
	}

	if len(detlog.records) != 1 {
		t.Fatalf("ожидали 1 запись за время работы, получили %d", len(detlog.records))
	}
}
