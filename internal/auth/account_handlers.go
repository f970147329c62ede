package auth

import (
	"context"
	"database/sql"
	"net/http"

	"go.uber.org/zap"

	"lifeai-backend/internal/db"
	"lifeai-backend/internal/respond"
)

func LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// JWT is stateless; the client drops the token.
		respond.JSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// accountCleanup lists deletes in child-before-parent order.
var accountCleanup = []string{
	`DELETE FROM appointment_scores WHERE appointment_id IN (SELECT id FROM appointments WHERE user_id = $1)`,
	`DELETE FROM appointment_activities WHERE appointment_id IN (SELECT id FROM appointments WHERE user_id = $1)`,
	`DELETE FROM appointments WHERE user_id = $1`,
	`DELETE FROM checklist_scores WHERE checklist_id IN (SELECT id FROM checklists WHERE user_id = $1)`,
	`DELETE FROM checklist_items WHERE checklist_id IN (SELECT id FROM checklists WHERE user_id = $1)`,
	`DELETE FROM checklists WHERE user_id = $1`,
	`DELETE FROM diet_plans WHERE user_id = $1`,
	`DELETE FROM exercise_sessions WHERE user_id = $1`,
	`DELETE FROM body_compositions WHERE user_id = $1`,
	`DELETE FROM body_records WHERE user_id = $1`,
	`DELETE FROM profiles WHERE user_id = $1`,
	`DELETE FROM analytics_events WHERE user_id = $1`,
	`DELETE FROM users WHERE id = $1`,
}

// DeleteAccount removes the user and everything they own in one transaction.
func DeleteAccount(ctx context.Context, dbx *sql.DB, uid int64) error {
	return db.Tx(ctx, dbx, func(tx *sql.Tx) error {
		for _, stmt := range accountCleanup {
			if _, err := tx.ExecContext(ctx, stmt, uid); err != nil {
				return err
			}
		}
		return nil
	})
}

func DeleteAccountHandler(dbx *sql.DB, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := RequireUser(w, r)
		if !ok {
			return
		}

		if err := DeleteAccount(r.Context(), dbx, uid); err != nil {
			log.Error("delete account", zap.Int64("user_id", uid), zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "delete account failed")
			return
		}

		respond.JSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}
