package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lifeai-backend/internal/db/dbtest"
)

var testSecret = []byte("test-secret")

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken(testSecret, 42)
	require.NoError(t, err)

	uid, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), uid)

	_, err = ParseToken([]byte("other"), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken(testSecret, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	var seen int64
	h := New(testSecret).Wrap(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/me/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	h(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := GenerateToken(testSecret, 7)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), seen)
}

func postJSON(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b)))
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	dbx := dbtest.New(t)
	register := RegisterHandler(dbx, testSecret, zap.NewNop())
	login := LoginHandler(dbx, testSecret)

	rec := postJSON(t, register, map[string]string{"username": "ana", "email": "Ana@Example.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = postJSON(t, register, map[string]string{"username": "ana", "email": "x@example.com", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, register, map[string]string{"username": "bia", "email": "ana@example.com", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, register, map[string]string{"username": "bia"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, login, map[string]string{"email": "ana@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, login, map[string]string{"email": "nobody@example.com", "password": "pw"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = postJSON(t, login, map[string]string{"email": "ana@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Access              string `json:"access"`
		UserID              int64  `json:"user_id"`
		OnboardingCompleted bool   `json:"onboarding_completed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.OnboardingCompleted)

	uid, err := ParseToken(testSecret, resp.Access)
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, uid)
}

func TestDeleteAccountRemovesOwnedRows(t *testing.T) {
	dbx := dbtest.New(t)
	uid := dbtest.CreateUser(t, dbx, "ana")
	other := dbtest.CreateUser(t, dbx, "bia")

	for _, u := range []int64{uid, other} {
		_, err := dbx.Exec(`INSERT INTO checklists (user_id, title, event_date) VALUES ($1, 't', '2026-01-01')`, u)
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/conta/", nil)
	DeleteAccountHandler(dbx, zap.NewNop())(rec, req.WithContext(WithUserID(req.Context(), uid)))
	require.Equal(t, http.StatusOK, rec.Code)

	var users, lists int
	require.NoError(t, dbx.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&users))
	require.NoError(t, dbx.QueryRow(`SELECT COUNT(*) FROM checklists`).Scan(&lists))
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, lists)
}

func TestRegisterRaceMapsUniqueViolation(t *testing.T) {
	dbx := dbtest.New(t)
	// lets an insert conflict on a username the exact-match check does not see
	_, err := dbx.Exec(`CREATE UNIQUE INDEX users_username_nocase ON users (lower(username))`)
	require.NoError(t, err)
	register := RegisterHandler(dbx, testSecret, zap.NewNop())

	rec := postJSON(t, register, map[string]string{"username": "Ana", "email": "a@example.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = postJSON(t, register, map[string]string{"username": "ana", "email": "b@example.com", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already in use")
}

func TestLoginFailsWhenProfileLookupFails(t *testing.T) {
	dbx := dbtest.New(t)
	rec := postJSON(t, RegisterHandler(dbx, testSecret, zap.NewNop()),
		map[string]string{"username": "ana", "email": "ana@example.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, rec.Code)

	_, err := dbx.Exec(`DROP TABLE profiles`)
	require.NoError(t, err)

	rec = postJSON(t, LoginHandler(dbx, testSecret), map[string]string{"email": "ana@example.com", "password": "pw"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "onboarding_completed")
}

func TestMeHandlerStatuses(t *testing.T) {
	dbx := dbtest.New(t)
	uid := dbtest.CreateUser(t, dbx, "ana")
	h := MeHandler(dbx)

	get := func(id int64) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me/", nil)
		req = req.WithContext(WithUserID(req.Context(), id))
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec
	}

	rec := get(uid)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"ana"`)

	assert.Equal(t, http.StatusNotFound, get(uid+1).Code)

	_, err := dbx.Exec(`ALTER TABLE users RENAME TO users_archived`)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, get(uid).Code)
}
