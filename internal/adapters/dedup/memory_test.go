package dedup

import (
	"sync"
	"testing"

	"eksi-quake-watch/internal/domain"
)

func TestMemoryMarkIfNew(t *testing.T) {
	store := NewMemory()
	key := domain.EventKey{Day: 6, Month: 2, Year: 2025, Province: "kahramanmaras"}

	if !store.IsNew(key) {
		t.Fatalf("пустое хранилище должно считать ключ новым")
	}
	if !store.MarkIfNew(key) {
		t.Fatalf("первая пометка должна вернуть true")
	}
	if store.MarkIfNew(key) {
		t.Fatalf("повторная пометка должна вернуть false")
	}
	if store.IsNew(key) {
		t.Fatalf("помеченный ключ не должен быть новым")
	}
}

func TestMemoryMarkSeenIdempotent(t *testing.T) {
	store := NewMemory()
	key := domain.EventKey{Day: 21, Month: 10, Year: 2023, Province: "izmir"}

	store.MarkSeen(key)
	store.MarkSeen(key)
	if store.Len() != 1 {
		t.Fatalf("ожидали 1 ключ, получили %d", store.Len())
	}
}

func TestMemoryRehydrate(t *testing.T) {
	store := NewMemory()
	keys := []domain.EventKey{
		{Day: 6, Month: 2, Year: 2025, Province: "kahramanmaras"},
		{Day: 21, Month: 10, Year: 2023, Province: "izmir"},
	}
	store.Rehydrate(keys)

	for _, key := range keys {
		if store.IsNew(key) {
			t.Fatalf("ключ %s должен быть известен после регидратации", key)
		}
	}
	if store.IsNew(domain.EventKey{Day: 1, Month: 1, Year: 2025, Province: "van"}) == false {
		t.Fatalf("посторонний ключ не должен считаться увиденным")
	}
}

func TestMemoryMarkIfNewConcurrent(t *testing.T) {
	store := NewMemory()
	key := domain.EventKey{Day: 6, Month: 2, Year: 2025, Province: "hatay"}

	const workers = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.MarkIfNew(key) {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	var total int
	for range wins {
		total++
	}
	if total != 1 {
		t.Fatalf("ровно одна горутина должна пометить ключ, получили %d", total)
	}
}
