package assistant

import (
	"context"
	"sync"
	"time"

	"lifeai-backend/internal/ai"
)

type reply struct {
	text string
	err  error
}

// fakeLLM answers with replies in order, repeating the last one.
type fakeLLM struct {
	mu      sync.Mutex
	replies []reply
	reqs    []ai.Request
}

func (f *fakeLLM) Generate(_ context.Context, req ai.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reqs = append(f.reqs, req)
	if len(f.replies) == 0 {
		return "ok", nil
	}
	i := len(f.reqs) - 1
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return f.replies[i].text, f.replies[i].err
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func (f *fakeLLM) lastRequest() ai.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

func instantPolicy() ai.Policy {
	p := ai.DefaultPolicy(3)
	p.Sleep = func(context.Context, time.Duration) error { return nil }
	return p
}
