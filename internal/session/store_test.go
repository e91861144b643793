package session

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestStorePutGetRemove(t *testing.T) {
	st := NewStore()

	if _, ok := st.Get(1); ok {
		t.Fatalf("expected no session for fresh store")
	}

	st.Put(Session{UserID: 1, Stage: StageChoosingFormat, URL: "https://youtu.be/x"})
	sess, ok := st.Get(1)
	if !ok {
		t.Fatalf("expected session after Put")
	}
	if sess.Stage != StageChoosingFormat {
		t.Errorf("stage = %v, want %v", sess.Stage, StageChoosingFormat)
	}
	if sess.StartedAt.IsZero() {
		t.Errorf("expected StartedAt to be stamped")
	}

	st.Remove(1)
	if _, ok := st.Get(1); ok {
		t.Fatalf("expected session gone after Remove")
	}
	st.Remove(1) // no-op
}

func TestStorePutReplacesDialog(t *testing.T) {
	st := NewStore()
	st.Put(Session{UserID: 7, Stage: StageAwaitingTitle, FilePath: "/tmp/old.mp3"})
	st.Put(Session{UserID: 7, Stage: StageChoosingFormat, URL: "https://youtu.be/new"})

	sess, ok := st.Get(7)
	if !ok || sess.Stage != StageChoosingFormat || sess.FilePath != "" {
		t.Fatalf("expected fresh dialog to replace the old one, got %+v ok=%v", sess, ok)
	}
}

func TestStoreDoNoSession(t *testing.T) {
	st := NewStore()
	called := false
	err := st.Do(42, func(sess *Session) (bool, error) {
		called = true
		return false, nil
	})
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
	if called {
		t.Fatalf("fn must not run without a session")
	}
}

func TestStoreDoRemovesAtomically(t *testing.T) {
	st := NewStore()
	st.Put(Session{UserID: 3, Stage: StageChoosingQuality})

	var wins, losses int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := st.Do(3, func(sess *Session) (bool, error) {
				time.Sleep(time.Millisecond)
				return true, nil
			})
			mu.Lock()
			if err == nil {
				wins++
			} else if errors.Is(err, ErrNoSession) {
				losses++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
	if losses != 15 {
		t.Fatalf("losses = %d, want 15", losses)
	}
	if _, ok := st.Get(3); ok {
		t.Fatalf("expected session removed after winning Do")
	}
}

func TestStoreUsersDoNotContend(t *testing.T) {
	st := NewStore()
	st.Put(Session{UserID: 1, Stage: StageAwaitingTitle})
	st.Put(Session{UserID: 2, Stage: StageAwaitingArtist})

	release := make(chan struct{})
	holding := make(chan struct{})
	go func() {
		_ = st.Do(1, func(sess *Session) (bool, error) {
			close(holding)
			<-release
			return false, nil
		})
	}()
	<-holding

	done := make(chan error, 1)
	go func() {
		done <- st.Do(2, func(sess *Session) (bool, error) { return false, nil })
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected err for second user: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("second user blocked behind first user's lock")
	}
	close(release)
}

func TestAwaitingInput(t *testing.T) {
	st := NewStore()
	if st.AwaitingInput(5) {
		t.Fatalf("no session must not await input")
	}
	st.Put(Session{UserID: 5, Stage: StageChoosingFormat})
	if st.AwaitingInput(5) {
		t.Fatalf("format choice must not await input")
	}
	for _, stage := range []Stage{StageAwaitingTitle, StageAwaitingArtist} {
		st.Put(Session{UserID: 5, Stage: stage})
		if !st.AwaitingInput(5) {
			t.Fatalf("stage %v must await input", stage)
		}
	}
}

func TestStageString(t *testing.T) {
	if got := StageAwaitingMetadataChoice.String(); got != "awaiting_metadata_choice" {
		t.Errorf("String() = %q", got)
	}
	if got := Stage(99).String(); got != "unknown" {
		t.Errorf("String() for unknown = %q", got)
	}
}
