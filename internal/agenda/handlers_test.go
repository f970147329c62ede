package agenda

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lifeai-backend/internal/auth"
)

func serve(h http.HandlerFunc, method, body string, uid int64, path map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	for k, v := range path {
		req.SetPathValue(k, v)
	}
	req = req.WithContext(auth.WithUserID(req.Context(), uid))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestAppointmentHandlers(t *testing.T) {
	s, uid, other := newStore(t)
	log := zap.NewNop()

	rec := serve(CreateAppointmentHandler(s, log), http.MethodPost,
		`{"titulo":"Yoga","data":"2026-06-10","hora_inicio":"18:00","hora_fim":"19:00"}`, uid, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Contains(t, rec.Body.String(), `"data":"2026-06-10"`)

	rec = serve(CreateAppointmentHandler(s, log), http.MethodPost,
		`{"titulo":"Yoga 2","data":"2026-06-10","hora_inicio":"18:00","hora_fim":"19:30"}`, uid, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "erro")

	id := strconv.FormatInt(created.ID, 10)

	rec = serve(GetAppointmentHandler(s, log), http.MethodGet, "", other, map[string]string{"id": id})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(GetAppointmentHandler(s, log), http.MethodGet, "", uid, map[string]string{"id": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(AddItemHandler(s, KindAppointment, log), http.MethodPost, `{"descricao":"Levar tapete"}`, uid, map[string]string{"id": id})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(UpdateAppointmentHandler(s, false, log), http.MethodPatch, `{"concluido":true}`, uid, map[string]string{"id": id})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"concluido":true`)

	rec = serve(ListItemsHandler(s, KindAppointment, log), http.MethodGet, "", uid, map[string]string{"id": id})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Levar tapete")

	rec = serve(DeleteHandler(s, KindAppointment, log), http.MethodDelete, "", uid, map[string]string{"id": id})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(ListAppointmentsHandler(s, log), http.MethodGet, "", uid, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
