package agenda

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeai-backend/internal/db/dbtest"
)

func ptr[T any](v T) *T { return &v }

func appt(title, date, start, end string) AppointmentInput {
	return AppointmentInput{Title: ptr(title), Date: ptr(date), Start: ptr(start), End: ptr(end)}
}

func newStore(t *testing.T) (*Store, int64, int64) {
	t.Helper()
	dbx := dbtest.New(t)
	return NewStore(dbx), dbtest.CreateUser(t, dbx, "ana"), dbtest.CreateUser(t, dbx, "bia")
}

func TestParseClock(t *testing.T) {
	for in, want := range map[string]string{"08:00": "08:00", "8:05": "08:05", "23:59:59": "23:59", " 07:30 ": "07:30"} {
		got, err := ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, in := range []string{"", "25:00", "8h", "12:60"} {
		_, err := ParseClock(in)
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve), in)
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindAppointment, k)

	k, err = ParseKind("Checklist")
	require.NoError(t, err)
	assert.Equal(t, KindChecklist, k)

	_, err = ParseKind("meta")
	assert.Error(t, err)
}

func TestAppointmentValidation(t *testing.T) {
	s, uid, _ := newStore(t)
	ctx := context.Background()

	for _, in := range []AppointmentInput{
		{Title: ptr("x")},
		appt("", "2026-05-01", "08:00", "09:00"),
		appt("x", "01/05/2026", "08:00", "09:00"),
		appt("x", "2026-05-01", "8h", "09:00"),
		appt("x", "2026-05-01", "09:00", "09:00"),
		appt("x", "2026-05-01", "10:00", "09:00"),
	} {
		_, err := s.CreateAppointment(ctx, uid, in)
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve), "%+v", in)
	}
}

func TestAppointmentCRUD(t *testing.T) {
	s, uid, other := newStore(t)
	ctx := context.Background()

	a, err := s.CreateAppointment(ctx, uid, appt("Academia", "2026-05-01", "07:00", "08:00"))
	require.NoError(t, err)
	assert.NotZero(t, a.ID)

	_, err = s.CreateAppointment(ctx, uid, appt("Outro", "2026-05-01", "07:00:00", "09:00"))
	assert.ErrorIs(t, err, ErrSlotTaken)

	// another user may book the same slot
	_, err = s.CreateAppointment(ctx, other, appt("Dela", "2026-05-01", "07:00", "08:00"))
	require.NoError(t, err)

	b, err := s.CreateAppointment(ctx, uid, appt("Médico", "2026-05-03", "10:00", "11:00"))
	require.NoError(t, err)

	list, err := s.ListAppointments(ctx, uid)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, "2026-05-03", list[0].Date.String())

	patched, err := s.UpdateAppointment(ctx, uid, a.ID, AppointmentInput{Done: ptr(true), End: ptr("08:30")}, false)
	require.NoError(t, err)
	assert.True(t, patched.Done)
	assert.Equal(t, "Academia", patched.Title)
	assert.Equal(t, "08:30", patched.End)

	_, err = s.UpdateAppointment(ctx, uid, a.ID, AppointmentInput{Title: ptr("só título")}, true)
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = s.UpdateAppointment(ctx, uid, b.ID, AppointmentInput{Date: ptr("2026-05-01"), Start: ptr("07:00"), End: ptr("07:30")}, false)
	assert.ErrorIs(t, err, ErrSlotTaken)

	_, err = s.GetAppointment(ctx, other, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.GetAppointment(ctx, uid, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Done)
	assert.Empty(t, got.Activities)
}

func TestItemsAndCascadingDelete(t *testing.T) {
	s, uid, other := newStore(t)
	ctx := context.Background()

	c, err := s.CreateChecklist(ctx, uid, ChecklistInput{Title: ptr("Manhã"), Date: ptr("2026-05-02")})
	require.NoError(t, err)

	_, err = s.AddItem(ctx, KindChecklist, uid, c.ID, ItemInput{})
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = s.AddItem(ctx, KindChecklist, other, c.ID, ItemInput{Description: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	water, err := s.AddItem(ctx, KindChecklist, uid, c.ID, ItemInput{Description: ptr("Beber água")})
	require.NoError(t, err)
	_, err = s.AddItem(ctx, KindChecklist, uid, c.ID, ItemInput{Description: ptr("Alongar"), Done: ptr(true)})
	require.NoError(t, err)

	toggled, err := s.UpdateItem(ctx, KindChecklist, uid, c.ID, water.ID, ItemInput{Done: ptr(true)})
	require.NoError(t, err)
	assert.True(t, toggled.Done)
	assert.Equal(t, "Beber água", toggled.Description)

	_, err = s.UpdateItem(ctx, KindChecklist, uid, c.ID, 9999, ItemInput{Done: ptr(true)})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.GetChecklist(ctx, uid, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.True(t, got.Items[0].Done && got.Items[1].Done)

	require.NoError(t, s.DeleteItem(ctx, KindChecklist, uid, c.ID, water.ID))
	assert.ErrorIs(t, s.DeleteItem(ctx, KindChecklist, uid, c.ID, water.ID), ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, KindChecklist, other, c.ID), ErrNotFound)
	require.NoError(t, s.Delete(ctx, KindChecklist, uid, c.ID))

	var n int
	require.NoError(t, s.dbx.QueryRow(`SELECT COUNT(*) FROM checklist_items`).Scan(&n))
	assert.Zero(t, n)
	_, err = s.GetChecklist(ctx, uid, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
