package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"lifeai-backend/internal/db"
)

type CtxKey string

const (
	ctxUserIDKey CtxKey = "analytics_user_id"
)

// Server-side event names.
const (
	EventScoreGenerated = "score_generated"
	EventDietGenerated  = "diet_generated"
	EventChatTurn       = "chat_turn"
)

// Envelope is what we store with every event.
type Envelope struct {
	UserID       int64
	SessionID    string
	Platform     string
	AppVersion   string
	DeviceLocale string
}

// FromRequest extracts event envelope fields from request headers.
func FromRequest(r *http.Request) Envelope {
	platform := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Platform")))
	switch platform {
	case "ios", "android", "web":
	default:
		platform = "unknown"
	}

	locale := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if locale == "" {
		locale = strings.TrimSpace(r.Header.Get("X-Device-Locale"))
	}

	env := Envelope{
		SessionID:    strings.TrimSpace(r.Header.Get("X-Session-Id")),
		Platform:     platform,
		AppVersion:   strings.TrimSpace(r.Header.Get("X-App-Version")),
		DeviceLocale: locale,
	}
	if uid, ok := UserIDFromContext(r.Context()); ok {
		env.UserID = uid
	}
	return env
}

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(ctxUserIDKey)
	if v == nil {
		return 0, false
	}
	uid, ok := v.(int64)
	return uid, ok
}

// SourceEventKeyFromRequest returns the client idempotency key, if any.
func SourceEventKeyFromRequest(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get("Idempotency-Key")); k != "" {
		return k
	}
	return strings.TrimSpace(r.Header.Get("X-Source-Event-Key"))
}

// Log inserts one analytics event. A repeated sourceEventKey is ignored.
// Callers pass sanitized props only; never raw chat text.
func Log(ctx context.Context, dbx *sql.DB, env Envelope, eventName string, props any, sourceEventKey string) error {
	if eventName == "" {
		return nil
	}

	userID := env.UserID
	if userID == 0 {
		uid, ok := UserIDFromContext(ctx)
		if !ok {
			return nil
		}
		userID = uid
	}
	if env.Platform == "" {
		env.Platform = "unknown"
	}
	if props == nil {
		props = map[string]any{}
	}

	b, err := json.Marshal(props)
	if err != nil {
		return err
	}

	_, err = dbx.ExecContext(ctx, `
		INSERT INTO analytics_events (
			event_name, event_time,
			user_id, session_id,
			platform, app_version, device_locale,
			source_event_key,
			properties
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source_event_key) DO NOTHING
	`, eventName, db.Timestamp(time.Now()),
		userID, nullIfEmpty(env.SessionID),
		env.Platform, env.AppVersion, nullIfEmpty(env.DeviceLocale),
		nullIfEmpty(sourceEventKey),
		string(b),
	)
	return err
}

func nullIfEmpty(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// Recorder logs server-side events without failing the request that caused them.
type Recorder struct {
	dbx *sql.DB
	log *zap.Logger
}

func NewRecorder(dbx *sql.DB, log *zap.Logger) *Recorder {
	return &Recorder{dbx: dbx, log: log}
}

// Track records eventName for the request's user. Errors are logged and dropped.
func (rec *Recorder) Track(r *http.Request, eventName string, props map[string]any) {
	if rec == nil {
		return
	}
	if err := Log(r.Context(), rec.dbx, FromRequest(r), eventName, props, ""); err != nil {
		rec.log.Warn("analytics event dropped", zap.String("event", eventName), zap.Error(err))
	}
}
