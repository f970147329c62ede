package analytics

import (
	"database/sql"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"lifeai-backend/internal/respond"
)

// clientEvents lists the event names the app may send, with the property keys kept for each.
var clientEvents = map[string][]string{
	"app_opened":          {"cold_start", "from"},
	"screen_viewed":       {"screen"},
	"checklist_completed": {"checklist_id", "porcentagem"},
	"diet_viewed":         {"dieta_id", "source"},
	"chat_opened":         {"source"},
	"exercise_finished":   {"exercise_name", "duration_seconds"},
}

// TrackHandler serves POST /eventos/: {"evento": "...", "propriedades": {...}}.
// Unknown property keys are dropped.
func TrackHandler(dbx *sql.DB, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var body struct {
			Event      string         `json:"evento"`
			Properties map[string]any `json:"propriedades"`
		}
		if err := respond.Decode(r, &body); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}

		name := strings.TrimSpace(body.Event)
		allowed, known := clientEvents[name]
		if !known {
			respond.Error(w, http.StatusBadRequest, "unknown event")
			return
		}

		props := make(map[string]any, len(allowed))
		for _, k := range allowed {
			if v, ok := body.Properties[k]; ok {
				props[k] = v
			}
		}

		env := FromRequest(r)
		env.UserID = uid

		if err := Log(r.Context(), dbx, env, name, props, SourceEventKeyFromRequest(r)); err != nil {
			log.Warn("client event insert", zap.String("event", name), zap.Int64("user_id", uid), zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "db error")
			return
		}

		respond.JSON(w, http.StatusAccepted, map[string]any{"ok": true})
	}
}
