package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"eksi-quake-watch/internal/domain"
)

// Redis хранит ключи событий во множестве Redis, переживая рестарты
// без регидратации из журнала. Ошибки Redis трактуются как «ключ новый»:
// лучше продублировать алерт, чем молча его потерять.
type Redis struct {
	client *redis.Client
	key    string
	log    zerolog.Logger
}

var _ domain.DedupStore = (*Redis)(nil)

// NewRedis создаёт хранилище поверх множества с указанным ключом.
func NewRedis(client *redis.Client, key string, logger zerolog.Logger) *Redis {
	return &Redis{client: client, key: key, log: logger}
}

func (r *Redis) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 3*time.Second)
}

// IsNew возвращает true, если ключ отсутствует во множестве.
func (r *Redis) IsNew(key domain.EventKey) bool {
	ctx, cancel := r.opCtx()
	defer cancel()
	member := key.String()
	exists, err := r.client.SIsMember(ctx, r.key, member).Result()
	if err != nil {
		r.log.Warn().Err(err).Str("key", member).Msg("dedup: ошибка SISMEMBER, считаем ключ новым")
		return true
	}
	return !exists
}

// MarkSeen добавляет ключ во множество. Повторное добавление — no-op.
func (r *Redis) MarkSeen(key domain.EventKey) {
	ctx, cancel := r.opCtx()
	defer cancel()
	member := key.String()
	if err := r.client.SAdd(ctx, r.key, member).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", member).Msg("dedup: ошибка SADD")
	}
}

// MarkIfNew атомарно добавляет ключ: SADD сам сообщает, был ли он новым.
func (r *Redis) MarkIfNew(key domain.EventKey) bool {
	ctx, cancel := r.opCtx()
	defer cancel()
	member := key.String()
	added, err := r.client.SAdd(ctx, r.key, member).Result()
	if err != nil {
		r.log.Warn().Err(err).Str("key", member).Msg("dedup: ошибка SADD, считаем ключ новым")
		return true
	}
	return added == 1
}
