package auth

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"lifeai-backend/internal/db"
	"lifeai-backend/internal/respond"
)

func RegisterHandler(dbx *sql.DB, secret []byte, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := respond.Decode(r, &body); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		body.Username = strings.TrimSpace(body.Username)
		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		if body.Username == "" || body.Email == "" || body.Password == "" {
			respond.Error(w, http.StatusBadRequest, "username, email and password are required")
			return
		}

		// check duplicates
		var usernameTaken, emailTaken int
		err := dbx.QueryRowContext(r.Context(), `
			SELECT
				COALESCE(SUM(CASE WHEN username = $1 THEN 1 ELSE 0 END), 0),
				COALESCE(SUM(CASE WHEN email = $2 THEN 1 ELSE 0 END), 0)
			FROM users
			WHERE username = $1 OR email = $2
		`, body.Username, body.Email).Scan(&usernameTaken, &emailTaken)
		if err != nil {
			log.Error("register: duplicate check", zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "db error")
			return
		}
		if usernameTaken > 0 {
			respond.Error(w, http.StatusBadRequest, "username already in use")
			return
		}
		if emailTaken > 0 {
			respond.Error(w, http.StatusBadRequest, "email already in use")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "password not accepted")
			return
		}

		var id int64
		err = dbx.QueryRowContext(r.Context(), `
			INSERT INTO users (username, email, password, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, body.Username, body.Email, string(hash), db.Timestamp(time.Now())).Scan(&id)
		if db.IsUniqueViolation(err) {
			// lost a race with a concurrent registration
			respond.Error(w, http.StatusBadRequest, "username or email already in use")
			return
		}
		if err != nil {
			log.Error("register: insert", zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "db error")
			return
		}

		token, err := GenerateToken(secret, id)
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, "token error")
			return
		}

		respond.JSON(w, http.StatusCreated, map[string]any{
			"message": "user created",
			"access":  token,
			"user": map[string]any{
				"id":       id,
				"username": body.Username,
				"email":    body.Email,
			},
		})
	}
}

func LoginHandler(dbx *sql.DB, secret []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := respond.Decode(r, &body); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		body.Email = strings.ToLower(strings.TrimSpace(body.Email))
		if body.Email == "" || body.Password == "" {
			respond.Error(w, http.StatusBadRequest, "email and password are required")
			return
		}

		var (
			id       int64
			username string
			hash     string
		)
		err := dbx.QueryRowContext(r.Context(), `
			SELECT id, username, password FROM users WHERE email = $1
		`, body.Email).Scan(&id, &username, &hash)
		if errors.Is(err, sql.ErrNoRows) {
			respond.Error(w, http.StatusNotFound, "no user with that email")
			return
		}
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, "db error")
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(body.Password)) != nil {
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		var profiles int
		err = dbx.QueryRowContext(r.Context(), `SELECT COUNT(*) FROM profiles WHERE user_id = $1`, id).Scan(&profiles)
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, "db error")
			return
		}

		token, err := GenerateToken(secret, id)
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, "token error")
			return
		}

		respond.JSON(w, http.StatusOK, map[string]any{
			"access":               token,
			"user_id":              id,
			"username":             username,
			"email":                body.Email,
			"onboarding_completed": profiles > 0,
		})
	}
}

func MeHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := RequireUser(w, r)
		if !ok {
			return
		}

		var username, email string
		err := dbx.QueryRowContext(r.Context(), `SELECT username, email FROM users WHERE id = $1`, uid).
			Scan(&username, &email)
		if errors.Is(err, sql.ErrNoRows) {
			respond.Error(w, http.StatusNotFound, "user not found")
			return
		}
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, "db error")
			return
		}

		respond.JSON(w, http.StatusOK, map[string]any{
			"user_id":  uid,
			"username": username,
			"email":    email,
		})
	}
}
