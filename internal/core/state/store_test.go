package state

import (
	"sync"
	"testing"
)

func TestSnapshot_ReturnsInitial(t *testing.T) {
	s := NewStore(42)
	if s.Snapshot() != 42 {
		t.Errorf("expected 42, got %d", s.Snapshot())
	}
}

func TestSet_NotifiesSubscribers(t *testing.T) {
	s := NewStore("idle")

	var got []string
	s.Subscribe(func(v string) {
		got = append(got, v)
	})

	s.Set("processing")
	s.Set("done")

	if len(got) != 2 || got[0] != "processing" || got[1] != "done" {
		t.Errorf("expected [processing done], got %v", got)
	}
	if s.Snapshot() != "done" {
		t.Errorf("expected snapshot done, got %s", s.Snapshot())
	}
}

func TestUnsubscribe_StopsNotifications(t *testing.T) {
	s := NewStore(0)

	count := 0
	unsubscribe := s.Subscribe(func(int) { count++ })

	s.Set(1)
	unsubscribe()
	unsubscribe() // second call is a no-op
	s.Set(2)

	if count != 1 {
		t.Errorf("expected 1 notification, got %d", count)
	}
}

func TestStore_ConcurrentSetAndSnapshot(t *testing.T) {
	s := NewStore(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(v int) {
			defer wg.Done()
			s.Set(v)
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
}
