package assistant

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeai-backend/internal/ai"
)

func userMsg(s string) ai.Message { return ai.Message{Role: ai.RoleUser, Text: s} }
func botMsg(s string) ai.Message  { return ai.Message{Role: ai.RoleAssistant, Text: s} }

func TestTurnAppendsBothMessages(t *testing.T) {
	s := NewSessionStore(time.Hour, 10)

	err := s.Turn("1:a", userMsg("oi"), func(h []ai.Message) (ai.Message, error) {
		assert.Equal(t, []ai.Message{userMsg("oi")}, h)
		return botMsg("olá"), nil
	})
	require.NoError(t, err)

	err = s.Turn("1:a", userMsg("e aí"), func(h []ai.Message) (ai.Message, error) {
		assert.Len(t, h, 3)
		return botMsg("tudo certo"), nil
	})
	require.NoError(t, err)

	assert.Equal(t, []ai.Message{userMsg("oi"), botMsg("olá"), userMsg("e aí"), botMsg("tudo certo")}, s.History("1:a"))
}

func TestTurnRollsBackOnFailure(t *testing.T) {
	s := NewSessionStore(time.Hour, 10)
	require.NoError(t, s.Turn("k", userMsg("q1"), func([]ai.Message) (ai.Message, error) { return botMsg("a1"), nil }))

	boom := errors.New("boom")
	err := s.Turn("k", userMsg("q2"), func([]ai.Message) (ai.Message, error) { return ai.Message{}, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []ai.Message{userMsg("q1"), botMsg("a1")}, s.History("k"))
}

func TestSessionExpiresAfterTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessionStore(time.Hour, 10)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Turn("k", userMsg("q"), func([]ai.Message) (ai.Message, error) { return botMsg("a"), nil }))
	assert.Equal(t, 2, s.Len("k"))

	now = now.Add(59 * time.Minute)
	assert.Equal(t, 2, s.Len("k"))

	now = now.Add(2 * time.Hour)
	assert.Zero(t, s.Len("k"))

	require.NoError(t, s.Turn("k", userMsg("q"), func(h []ai.Message) (ai.Message, error) {
		assert.Len(t, h, 1)
		return botMsg("a"), nil
	}))
	assert.Equal(t, 2, s.Len("k"))
}

func TestSweepDropsExpiredSessions(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessionStore(time.Hour, 100)
	s.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Turn(fmt.Sprint(i), userMsg("q"), func([]ai.Message) (ai.Message, error) { return botMsg("a"), nil }))
	}
	assert.Equal(t, 5, s.Size())

	now = now.Add(2 * time.Hour)
	require.NoError(t, s.Turn("fresh", userMsg("q"), func([]ai.Message) (ai.Message, error) { return botMsg("a"), nil }))
	assert.Equal(t, 1, s.Size())
}

func TestStoreNeverExceedsCap(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessionStore(time.Hour, 3)
	s.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	for i := 0; i < 10; i++ {
		require.NoError(t, s.Turn(fmt.Sprint(i), userMsg("q"), func([]ai.Message) (ai.Message, error) { return botMsg("a"), nil }))
		assert.LessOrEqual(t, s.Size(), 3)
	}

	// least recently used went first
	assert.Zero(t, s.Len("0"))
	assert.Equal(t, 2, s.Len("9"))
}

func TestConcurrentTurnsOnOneSessionAreSerialised(t *testing.T) {
	s := NewSessionStore(time.Hour, 10)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q := fmt.Sprintf("q%d", i)
			err := s.Turn("k", userMsg(q), func(h []ai.Message) (ai.Message, error) {
				// a whole turn sees only completed pairs plus its own question
				assert.Equal(t, 1, len(h)%2)
				assert.Equal(t, q, h[len(h)-1].Text)
				return botMsg("a" + q[1:]), nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	h := s.History("k")
	require.Len(t, h, 2*n)
	for i := 0; i < len(h); i += 2 {
		assert.Equal(t, ai.RoleUser, h[i].Role)
		assert.Equal(t, "a"+h[i].Text[1:], h[i+1].Text)
	}
}

func TestDeleteAndSessionKey(t *testing.T) {
	s := NewSessionStore(time.Hour, 10)
	require.NoError(t, s.Turn(SessionKey(1, "x"), userMsg("q"), func([]ai.Message) (ai.Message, error) { return botMsg("a"), nil }))

	assert.Equal(t, "1:x", SessionKey(1, "x"))
	assert.Zero(t, s.Len(SessionKey(2, "x")))
	assert.False(t, s.Delete(SessionKey(2, "x")))
	assert.True(t, s.Delete(SessionKey(1, "x")))
	assert.Zero(t, s.Size())
}

func TestDeleteWaitsForTurnInProgress(t *testing.T) {
	s := NewSessionStore(time.Hour, 10)

	var active atomic.Int32
	entered := make(chan struct{})
	unblock := make(chan struct{})
	firstDone := make(chan error, 1)
	go func() {
		firstDone <- s.Turn("k", userMsg("q1"), func([]ai.Message) (ai.Message, error) {
			active.Add(1)
			defer active.Add(-1)
			close(entered)
			<-unblock
			return botMsg("a1"), nil
		})
	}()
	<-entered

	deleted := make(chan bool, 1)
	go func() { deleted <- s.Delete("k") }()

	secondDone := make(chan error, 1)
	go func() {
		secondDone <- s.Turn("k", userMsg("q2"), func(h []ai.Message) (ai.Message, error) {
			assert.Zero(t, active.Load(), "turns on one session overlapped")
			assert.Equal(t, 1, len(h)%2)
			return botMsg("a2"), nil
		})
	}()

	select {
	case <-deleted:
		t.Fatal("delete returned while a turn was in progress")
	case <-time.After(50 * time.Millisecond):
	}

	close(unblock)
	require.NoError(t, <-firstDone)
	assert.True(t, <-deleted)
	require.NoError(t, <-secondDone)

	// the second turn ran either before or after the clear, never alongside the first
	h := s.History("k")
	assert.Contains(t, []int{0, 2}, len(h))
	if len(h) == 2 {
		assert.Equal(t, []ai.Message{userMsg("q2"), botMsg("a2")}, h)
	}
	assert.LessOrEqual(t, s.Size(), 1)
}
