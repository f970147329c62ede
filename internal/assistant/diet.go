package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"lifeai-backend/internal/ai"
)

// ErrStorage wraps persistence failures so they are not mistaken for model failures.
var ErrStorage = errors.New("diet storage")

// InvalidOutputError means the model answered with something that is not a JSON object.
type InvalidOutputError struct {
	Raw string
	Err error
}

func (e *InvalidOutputError) Error() string {
	return fmt.Sprintf("invalid model output: %v", e.Err)
}

func (e *InvalidOutputError) Unwrap() error {
	return e.Err
}

// DietResult is a plan and whether it came from storage without a model call.
type DietResult struct {
	Plan   DietPlan
	Cached bool
}

// DietService generates and stores diet plans.
type DietService struct {
	llm    Completer
	policy ai.Policy
	store  *DietStore
	group  singleflight.Group
}

func NewDietService(llm Completer, policy ai.Policy, store *DietStore) *DietService {
	return &DietService{llm: llm, policy: policy, store: store}
}

// Generate returns the stored plan unless forceNew is set or none exists;
// otherwise it asks the model for a new plan and stores it. A forced request
// always makes its own model call. Identical concurrent first-plan requests
// for one user share a single call.
func (s *DietService) Generate(ctx context.Context, userID int64, question string, forceNew bool, profile ai.ProfileContext) (DietResult, error) {
	if !forceNew {
		plan, err := s.store.Latest(ctx, userID)
		if err == nil {
			return DietResult{Plan: plan, Cached: true}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return DietResult{}, fmt.Errorf("%w: %w", ErrStorage, err)
		}
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return DietResult{}, ErrQuestionRequired
	}

	prompt := question
	if block := ai.BuildProfileContext(profile); block != "" {
		prompt += "\n\n" + block
	}

	if forceNew {
		plan, err := s.generate(ctx, userID, prompt)
		if err != nil {
			return DietResult{}, err
		}
		return DietResult{Plan: plan}, nil
	}

	key := fmt.Sprintf("%d:%s", userID, prompt)
	ch := s.group.DoChan(key, func() (any, error) {
		// shared by every waiter, so it must outlive any single caller
		return s.generate(context.WithoutCancel(ctx), userID, prompt)
	})

	select {
	case <-ctx.Done():
		return DietResult{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return DietResult{}, res.Err
		}
		return DietResult{Plan: res.Val.(DietPlan)}, nil
	}
}

func (s *DietService) generate(ctx context.Context, userID int64, prompt string) (DietPlan, error) {
	req := ai.Request{
		System:   ai.DietInstruction,
		Messages: []ai.Message{{Role: ai.RoleUser, Text: prompt}},
		JSON:     true,
	}

	var raw string
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		text, err := s.llm.Generate(ctx, req)
		if err != nil {
			return err
		}
		raw = text
		return nil
	})
	if err != nil {
		return DietPlan{}, err
	}

	plan, err := ParsePlan(raw)
	if err != nil {
		return DietPlan{}, err
	}
	stored, err := s.store.Insert(ctx, userID, plan)
	if err != nil {
		return DietPlan{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return stored, nil
}

// ParsePlan strips code fences from the model text and parses it as a JSON object.
func ParsePlan(raw string) (json.RawMessage, error) {
	body := StripFences(raw)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return nil, &InvalidOutputError{Raw: raw, Err: err}
	}
	if obj == nil {
		return nil, &InvalidOutputError{Raw: raw, Err: errors.New("not a JSON object")}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(body)); err != nil {
		return nil, &InvalidOutputError{Raw: raw, Err: err}
	}
	return json.RawMessage(buf.Bytes()), nil
}

// StripFences removes a surrounding ``` or ```lang fence.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	s = strings.TrimLeftFunc(s, isTagRune)

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isTagRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}
