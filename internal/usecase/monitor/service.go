package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"eksi-quake-watch/internal/domain"
	"eksi-quake-watch/internal/infra/metrics"
	"eksi-quake-watch/internal/usecase/detect"
)

// Options настраивает цикл опроса и необязательные приёмники.
type Options struct {
	Interval       time.Duration
	FetchTimeout   time.Duration
	HeartbeatEvery int
	// MaxDateDrift отбрасывает события, чья дата дальше указанного
	// срока от текущего дня. 0 отключает фильтр.
	MaxDateDrift time.Duration
	Repo         domain.DetectionRepo
	Notifiers    []domain.AlertNotifier
}

// Service — планировщик опроса: по фиксированному интервалу забирает
// заголовки гюндема, прогоняет их через матчер, отсеивает дубликаты и
// фиксирует новые события. Ни одна ошибка внутри цикла не фатальна:
// неудачный опрос эквивалентен пустому списку, сбойный заголовок
// пропускается по одному.
type Service struct {
	fetcher domain.GundemFetcher
	store   domain.DedupStore
	detlog  domain.DetectionLog
	log     zerolog.Logger
	opts    Options

	now        func() time.Time
	fetchCount int
}

// NewService создаёт планировщик.
func NewService(fetcher domain.GundemFetcher, store domain.DedupStore, detlog domain.DetectionLog, logger zerolog.Logger, opts Options) *Service {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 20 * time.Second
	}
	if opts.HeartbeatEvery <= 0 {
		opts.HeartbeatEvery = 2
	}
	return &Service{
		fetcher: fetcher,
		store:   store,
		detlog:  detlog,
		log:     logger,
		opts:    opts,
		now:     time.Now,
	}
}

// Run крутит цикл опроса до отмены контекста. Первый опрос выполняется
// сразу, далее между циклами выдерживается интервал. Сигнал остановки
// проверяется в начале каждого цикла; запущенные запрос или запись
// довыполняются до конца.
func (s *Service) Run(ctx context.Context) {
	s.log.Info().
		Dur("interval", s.opts.Interval).
		Int("heartbeat_every", s.opts.HeartbeatEvery).
		Msg("monitor: наблюдение запущено")

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			s.log.Info().Int("fetches", s.fetchCount).Msg("monitor: наблюдение остановлено")
			return
		}
		s.RunOnce(ctx)
		select {
		case <-ctx.Done():
			s.log.Info().Int("fetches", s.fetchCount).Msg("monitor: наблюдение остановлено")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce выполняет один цикл: опрос, матчинг, дедупликацию, фиксацию.
func (s *Service) RunOnce(ctx context.Context) {
	cycleStart := time.Now()
	defer func() {
		metrics.CycleDuration.Observe(time.Since(cycleStart).Seconds())
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	basliks, err := s.fetcher.FetchGundem(fetchCtx)
	cancel()

	s.fetchCount++
	metrics.FetchTotal.Inc()
	if err != nil {
		// неудачный опрос — это пустой цикл, а не остановка
		metrics.FetchErrors.Inc()
		s.log.Warn().Err(err).Msg("monitor: не удалось получить гюндем")
		return
	}

	if len(basliks) > 0 && s.fetchCount%s.opts.HeartbeatEvery == 0 {
		s.log.Info().
			Int("fetches", s.fetchCount).
			Int("basliks", len(basliks)).
			Msg("monitor: система работает, наблюдение продолжается")
	}

	for _, baslik := range basliks {
		s.processBaslik(ctx, baslik)
	}
}

// processBaslik обрабатывает один заголовок. Кандидаты обрабатываются в
// порядке выдачи гюндема, записи в журнал идут в том же порядке.
func (s *Service) processBaslik(ctx context.Context, baslik domain.Baslik) {
	metrics.TitlesScanned.Inc()

	info, ok := detect.Match(baslik.Title)
	if !ok {
		return
	}

	if !s.dateWithinDrift(info) {
		s.log.Debug().
			Str("title", baslik.Title).
			Int("day", info.Day).Int("month", info.Month).Int("year", info.Year).
			Msg("monitor: дата вне допустимого окна, пропускаем")
		return
	}

	key := detect.Key(info)
	if !s.store.MarkIfNew(key) {
		metrics.DuplicatesSkipped.Inc()
		return
	}

	rec := domain.DetectionRecord{
		DetectedAt: s.now(),
		Baslik:     baslik,
		Info:       info,
	}
	metrics.DetectionsTotal.WithLabelValues(string(info.Confidence)).Inc()

	if !s.persist(ctx, key, rec) {
		return
	}

	s.fanOut(ctx, rec)
}

// persist пишет запись в журнал с одним повтором. После второй неудачи
// запись отбрасывается с явной ошибкой в логе; ключ остаётся помеченным,
// чтобы следующий цикл не поднял повторный алерт по тому же событию.
func (s *Service) persist(ctx context.Context, key domain.EventKey, rec domain.DetectionRecord) bool {
	err := s.detlog.Record(ctx, rec)
	if err != nil {
		metrics.PersistErrors.Inc()
		s.log.Warn().Err(err).Str("key", key.String()).Msg("monitor: запись не удалась, повторяем")
		err = s.detlog.Record(ctx, rec)
	}
	if err != nil {
		metrics.PersistErrors.Inc()
		s.log.Error().Err(err).
			Str("key", key.String()).
			Str("title", rec.Baslik.Title).
			Msg("monitor: запись потеряна после повтора")
		return false
	}
	return true
}

// fanOut рассылает событие в необязательные приёмники. Их сбои не
// влияют на основной контракт: событие уже в журнале.
func (s *Service) fanOut(ctx context.Context, rec domain.DetectionRecord) {
	event := domain.AlertEvent{EventID: uuid.NewString(), Record: rec}

	if s.opts.Repo != nil {
		if err := s.opts.Repo.InsertDetection(ctx, event.EventID, rec); err != nil {
			s.log.Error().Err(err).Str("event_id", event.EventID).Msg("monitor: не удалось сохранить событие в БД")
		}
	}
	for _, notifier := range s.opts.Notifiers {
		if err := notifier.Notify(ctx, event); err != nil {
			metrics.NotifyErrors.Inc()
			s.log.Error().Err(err).Str("event_id", event.EventID).Msg("monitor: не удалось доставить уведомление")
		}
	}
}

// dateWithinDrift проверяет дату события против окна MaxDateDrift.
// При включённом фильтре несуществующие даты (30 февраля) тоже отсеиваются.
func (s *Service) dateWithinDrift(info domain.EarthquakeInfo) bool {
	drift := s.opts.MaxDateDrift
	if drift <= 0 {
		return true
	}
	date := time.Date(info.Year, time.Month(info.Month), info.Day, 0, 0, 0, 0, time.UTC)
	if date.Day() != info.Day || date.Month() != time.Month(info.Month) {
		return false
	}
	now := s.now().UTC().Truncate(24 * time.Hour)
	diff := date.Sub(now)
	if diff < 0 {
		diff = -diff
	}
	return diff <= drift
}
