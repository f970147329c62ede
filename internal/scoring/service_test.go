package scoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lifeai-backend/internal/agenda"
	"lifeai-backend/internal/auth"
	"lifeai-backend/internal/db/dbtest"
)

func ptr[T any](v T) *T { return &v }

type fixture struct {
	svc    *Service
	agenda *agenda.Store
	uid    int64
	other  int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dbx := dbtest.New(t)
	store := agenda.NewStore(dbx)
	return fixture{
		svc:    NewService(dbx, store),
		agenda: store,
		uid:    dbtest.CreateUser(t, dbx, "ana"),
		other:  dbtest.CreateUser(t, dbx, "bia"),
	}
}

func (f fixture) checklist(t *testing.T, date string, done ...bool) int64 {
	t.Helper()
	ctx := context.Background()
	c, err := f.agenda.CreateChecklist(ctx, f.uid, agenda.ChecklistInput{Title: ptr("lista"), Date: ptr(date)})
	require.NoError(t, err)
	for _, d := range done {
		_, err := f.agenda.AddItem(ctx, agenda.KindChecklist, f.uid, c.ID, agenda.ItemInput{Description: ptr("item"), Done: ptr(d)})
		require.NoError(t, err)
	}
	return c.ID
}

func TestScoreUpsertsOneRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	clock := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return clock }

	id := f.checklist(t, "2026-04-01", true, false, false)

	first, err := f.svc.Score(ctx, agenda.KindChecklist, id, f.uid)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Total)
	assert.Equal(t, 1, first.Completed)
	assert.InDelta(t, 33.333, first.Percentage, 0.001)
	assert.Equal(t, TierMedium, first.Tier())

	items, err := f.agenda.Items(ctx, agenda.KindChecklist, f.uid, id)
	require.NoError(t, err)
	for _, it := range items {
		_, err := f.agenda.UpdateItem(ctx, agenda.KindChecklist, f.uid, id, it.ID, agenda.ItemInput{Done: ptr(true)})
		require.NoError(t, err)
	}

	clock = clock.Add(time.Hour)
	second, err := f.svc.Score(ctx, agenda.KindChecklist, id, f.uid)
	require.NoError(t, err)
	assert.Equal(t, 3, second.Completed)
	assert.Equal(t, 100.0, second.Percentage)
	assert.Equal(t, TierHigh, second.Tier())
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	var rows int
	require.NoError(t, f.svc.dbx.QueryRow(`SELECT COUNT(*) FROM checklist_scores WHERE checklist_id = $1`, id).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestScoreRejectsEmptyAndForeignParents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty := f.checklist(t, "2026-04-02")
	_, err := f.svc.Score(ctx, agenda.KindChecklist, empty, f.uid)
	assert.ErrorIs(t, err, ErrNoItems)

	var rows int
	require.NoError(t, f.svc.dbx.QueryRow(`SELECT COUNT(*) FROM checklist_scores`).Scan(&rows))
	assert.Zero(t, rows)

	id := f.checklist(t, "2026-04-02", true)
	_, err = f.svc.Score(ctx, agenda.KindChecklist, id, f.other)
	assert.ErrorIs(t, err, agenda.ErrNotFound)

	_, err = f.svc.Score(ctx, agenda.KindAppointment, id, f.uid)
	assert.ErrorIs(t, err, agenda.ErrNotFound)
}

func TestScoreAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.agenda.CreateAppointment(ctx, f.uid, agenda.AppointmentInput{
		Title: ptr("Treino"), Date: ptr("2026-04-03"), Start: ptr("07:00"), End: ptr("08:00"),
	})
	require.NoError(t, err)
	for _, d := range []bool{true, true, false} {
		_, err := f.agenda.AddItem(ctx, agenda.KindAppointment, f.uid, a.ID, agenda.ItemInput{Description: ptr("x"), Done: ptr(d)})
		require.NoError(t, err)
	}

	sc, err := f.svc.Score(ctx, agenda.KindAppointment, a.ID, f.uid)
	require.NoError(t, err)
	assert.Equal(t, 66.67, Round2(sc.Percentage))
	assert.Equal(t, TierHigh, sc.Tier())
}

func TestMonthly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	late := f.checklist(t, "2026-04-20", true)
	early := f.checklist(t, "2026-04-05", false, true)
	march := f.checklist(t, "2026-03-31", true)
	f.checklist(t, "2026-04-10", true) // never scored

	for _, id := range []int64{late, early, march} {
		_, err := f.svc.Score(ctx, agenda.KindChecklist, id, f.uid)
		require.NoError(t, err)
	}

	entries, err := f.svc.Monthly(ctx, agenda.KindChecklist, f.uid, 2026, time.April)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, early, entries[0].ParentID)
	assert.Equal(t, "2026-04-05", entries[0].Date.String())
	assert.Equal(t, 50.0, entries[0].Percentage)
	assert.Equal(t, late, entries[1].ParentID)

	entries, err = f.svc.Monthly(ctx, agenda.KindChecklist, f.other, 2026, time.April)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandlers(t *testing.T) {
	f := newFixture(t)
	id := f.checklist(t, "2026-04-05", true, false)
	log := zap.NewNop()

	do := func(h http.HandlerFunc, method, target string, pathID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, nil)
		if pathID != "" {
			req.SetPathValue("id", pathID)
		}
		req = req.WithContext(auth.WithUserID(req.Context(), f.uid))
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec
	}

	score := ScoreHandler(f.svc, agenda.KindChecklist, nil, log)
	rec := do(score, http.MethodPost, "/checklists/x/pontuacao/", "x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(score, http.MethodPost, "/checklists/999/pontuacao/", "999")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(score, http.MethodPost, "/checklists/1/pontuacao/", "1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"checklist_id":1`)
	assert.Contains(t, rec.Body.String(), `"porcentagem":50`)
	assert.Contains(t, rec.Body.String(), `"nivel":"medium"`)
	assert.Equal(t, int64(1), id)

	monthly := MonthlyHandler(f.svc, log)
	for _, target := range []string{"/pontuacoes/mensal/", "/pontuacoes/mensal/?ano=2026", "/pontuacoes/mensal/?ano=x&mes=4", "/pontuacoes/mensal/?ano=2026&mes=13", "/pontuacoes/mensal/?ano=2026&mes=4&tipo=meta"} {
		assert.Equal(t, http.StatusBadRequest, do(monthly, http.MethodGet, target, "").Code, target)
	}

	rec = do(monthly, http.MethodGet, "/pontuacoes/mensal/?ano=2026&mes=4&tipo=checklist", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"checklist_id":1,"data":"2026-04-05","porcentagem":50,"nivel":"medium","emoji":"😐"}]`, rec.Body.String())

	rec = do(monthly, http.MethodGet, "/pontuacoes/mensal/?ano=2026&mes=4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
