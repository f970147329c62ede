package assistant

import (
	"context"
	"errors"
	"strings"

	"lifeai-backend/internal/ai"
)

var (
	ErrQuestionRequired  = errors.New("pergunta é obrigatória")
	ErrSessionIDRequired = errors.New("sessao_id é obrigatório")
)

// Completer is the upstream model. *ai.Client implements it.
type Completer interface {
	Generate(ctx context.Context, req ai.Request) (string, error)
}

// Chat forwards questions to the model with per-session history.
type Chat struct {
	llm      Completer
	policy   ai.Policy
	sessions *SessionStore
}

func NewChat(llm Completer, policy ai.Policy, sessions *SessionStore) *Chat {
	return &Chat{llm: llm, policy: policy, sessions: sessions}
}

// Ask runs one turn. On any failure the session history is left as it was.
func (c *Chat) Ask(ctx context.Context, userID int64, sessionID, question string, profile ai.ProfileContext) (string, error) {
	question = strings.TrimSpace(question)
	sessionID = strings.TrimSpace(sessionID)
	if question == "" {
		return "", ErrQuestionRequired
	}
	if sessionID == "" {
		return "", ErrSessionIDRequired
	}

	system := ai.ChatInstruction
	if block := ai.BuildProfileContext(profile); block != "" {
		system += "\n\n" + block
	}

	var answer string
	err := c.sessions.Turn(SessionKey(userID, sessionID),
		ai.Message{Role: ai.RoleUser, Text: question},
		func(history []ai.Message) (ai.Message, error) {
			req := ai.Request{System: system, Messages: history, Temperature: 0.7}
			err := c.policy.Do(ctx, func(ctx context.Context) error {
				text, err := c.llm.Generate(ctx, req)
				if err != nil {
					return err
				}
				answer = text
				return nil
			})
			if err != nil {
				return ai.Message{}, err
			}
			return ai.Message{Role: ai.RoleAssistant, Text: answer}, nil
		})
	if err != nil {
		return "", err
	}
	return answer, nil
}

// Forget drops a user's session.
func (c *Chat) Forget(userID int64, sessionID string) bool {
	return c.sessions.Delete(SessionKey(userID, sessionID))
}
