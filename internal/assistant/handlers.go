package assistant

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"lifeai-backend/internal/ai"
	"lifeai-backend/internal/analytics"
	"lifeai-backend/internal/auth"
	"lifeai-backend/internal/respond"
)

// ProfileLoader supplies the profile block for prompts. A user without a
// profile gets a zero ProfileContext and no error.
type ProfileLoader interface {
	ProfileContext(ctx context.Context, userID int64) (ai.ProfileContext, error)
}

func loadProfile(r *http.Request, profiles ProfileLoader, uid int64, log *zap.Logger) ai.ProfileContext {
	if profiles == nil {
		return ai.ProfileContext{}
	}
	p, err := profiles.ProfileContext(r.Context(), uid)
	if err != nil {
		// the question is still answerable without it
		log.Warn("profile context", zap.Int64("user_id", uid), zap.Error(err))
		return ai.ProfileContext{}
	}
	return p
}

// writeUpstreamError maps a failed model call to a status code.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, log *zap.Logger, uid int64, err error) {
	status := http.StatusBadGateway
	msg := "falha ao consultar o serviço de IA"
	upstream := ai.UpstreamStatus(err)

	switch {
	case errors.Is(err, ai.ErrRetriesExhausted):
		status = http.StatusServiceUnavailable
		msg = "serviço de IA indisponível, tente novamente"
	case upstream > 0:
		status = upstream
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
		msg = "serviço de IA indisponível, tente novamente"
	}

	log.Warn("upstream call failed",
		zap.Int64("user_id", uid),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Int("status_upstream", upstream),
		zap.Error(err),
	)

	body := map[string]any{"erro": msg}
	if upstream > 0 {
		body["status_upstream"] = upstream
	}
	respond.JSON(w, status, body)
}

// ChatHandler serves POST /chat-ia/.
func ChatHandler(chat *Chat, profiles ProfileLoader, events *analytics.Recorder, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}

		var body struct {
			Question  string `json:"pergunta"`
			SessionID string `json:"sessao_id"`
		}
		if err := respond.Decode(r, &body); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		if strings.TrimSpace(body.Question) == "" {
			respond.Error(w, http.StatusBadRequest, ErrQuestionRequired.Error())
			return
		}
		if strings.TrimSpace(body.SessionID) == "" {
			respond.Error(w, http.StatusBadRequest, ErrSessionIDRequired.Error())
			return
		}

		profile := loadProfile(r, profiles, uid, log)

		started := time.Now()
		answer, err := chat.Ask(r.Context(), uid, body.SessionID, body.Question, profile)
		if err != nil {
			writeUpstreamError(w, r, log, uid, err)
			return
		}

		events.Track(r, analytics.EventChatTurn, map[string]any{
			"latency_ms":   time.Since(started).Milliseconds(),
			"with_profile": !profile.IsZero(),
		})

		respond.JSON(w, http.StatusOK, map[string]any{"resposta": answer})
	}
}

// DeleteSessionHandler serves DELETE /chat-ia/{sessao_id}/.
func DeleteSessionHandler(chat *Chat) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}

		if !chat.Forget(uid, r.PathValue("sessao_id")) {
			respond.Error(w, http.StatusNotFound, "sessão não encontrada")
			return
		}
		respond.NoContent(w)
	}
}

func dietResponse(p DietPlan, cached bool) map[string]any {
	return map[string]any{
		"id":           p.ID,
		"data_criacao": p.CreatedAt,
		"resposta":     p.Plan,
		"em_cache":     cached,
	}
}

// DietHandler serves POST /gerar-dieta-ia/.
func DietHandler(diets *DietService, profiles ProfileLoader, events *analytics.Recorder, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}

		var body struct {
			Question string `json:"pergunta"`
			ForceNew bool   `json:"force_new"`
		}
		if err := respond.Decode(r, &body); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		var profile ai.ProfileContext
		if body.ForceNew || strings.TrimSpace(body.Question) != "" {
			profile = loadProfile(r, profiles, uid, log)
		}

		res, err := diets.Generate(r.Context(), uid, body.Question, body.ForceNew, profile)
		var invalid *InvalidOutputError
		switch {
		case err == nil:
		case errors.Is(err, ErrQuestionRequired):
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		case errors.As(err, &invalid):
			log.Warn("diet output rejected", zap.Int64("user_id", uid), zap.Error(err))
			respond.JSON(w, http.StatusInternalServerError, map[string]any{
				"erro":           "a IA retornou um plano em formato inválido",
				"resposta_bruta": invalid.Raw,
			})
			return
		case errors.Is(err, ErrStorage):
			log.Error("diet generation", zap.Int64("user_id", uid), zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "db error")
			return
		default:
			writeUpstreamError(w, r, log, uid, err)
			return
		}

		if !res.Cached {
			events.Track(r, analytics.EventDietGenerated, map[string]any{
				"dieta_id":  res.Plan.ID,
				"force_new": body.ForceNew,
			})
		}

		respond.JSON(w, http.StatusOK, dietResponse(res.Plan, res.Cached))
	}
}

// LatestDietHandler serves GET /gerar-dieta-ia/.
func LatestDietHandler(store *DietStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}

		plan, err := store.Latest(r.Context(), uid)
		if errors.Is(err, ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "nenhuma dieta gerada ainda")
			return
		}
		if err != nil {
			log.Error("latest diet", zap.Int64("user_id", uid), zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "db error")
			return
		}

		respond.JSON(w, http.StatusOK, dietResponse(plan, true))
	}
}

// DietHistoryHandler serves GET /dietas/historico/.
func DietHistoryHandler(store *DietStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}

		plans, err := store.List(r.Context(), uid)
		if err != nil {
			log.Error("diet history", zap.Int64("user_id", uid), zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "db error")
			return
		}
		respond.JSON(w, http.StatusOK, plans)
	}
}
