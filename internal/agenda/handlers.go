package agenda

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"lifeai-backend/internal/auth"
	"lifeai-backend/internal/respond"
)

func notFoundMsg(kind Kind) string {
	if kind == KindChecklist {
		return "Checklist não encontrado."
	}
	return "Compromisso não encontrado."
}

func writeStoreError(w http.ResponseWriter, log *zap.Logger, kind Kind, op string, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		respond.Error(w, http.StatusBadRequest, ve.Msg)
	case errors.Is(err, ErrSlotTaken):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, notFoundMsg(kind))
	default:
		log.Error(op, zap.String("kind", string(kind)), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "db error")
	}
}

// pathIDs reads {id} and, when item is set, {item_id}.
func pathIDs(w http.ResponseWriter, r *http.Request, item bool) (id, itemID int64, ok bool) {
	id, ok = respond.PathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return 0, 0, false
	}
	if item {
		itemID, ok = respond.PathID(r, "item_id")
		if !ok {
			respond.Error(w, http.StatusBadRequest, "invalid item id")
			return 0, 0, false
		}
	}
	return id, itemID, true
}

// ---- appointments ----

func ListAppointmentsHandler(store *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		list, err := store.ListAppointments(r.Context(), uid)
		if err != nil {
			writeStoreError(w, log, KindAppointment, "list appointments", err)
			return
		}
		respond.JSON(w, http.StatusOK, list)
	}
}

func CreateAppointmentHandler(store *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		var in AppointmentInput
		if err := respond.Decode(r, &in); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		a, err := store.CreateAppointment(r.Context(), uid, in)
		if err != nil {
			writeStoreError(w, log, KindAppointment, "create appointment", err)
			return
		}
		respond.JSON(w, http.StatusCreated, a)
	}
}

func GetAppointmentHandler(store *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		id, _, ok := pathIDs(w, r, false)
		if !ok {
			return
		}
		a, err := store.GetAppointment(r.Context(), uid, id)
		if err != nil {
			writeStoreError(w, log, KindAppointment, "get appointment", err)
			return
		}
		respond.JSON(w, http.StatusOK, a)
	}
}

// UpdateAppointmentHandler serves PUT (full) and PATCH.
func UpdateAppointmentHandler(store *Store, full bool, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		id, _, ok := pathIDs(w, r, false)
		if !ok {
			return
		}
		var in AppointmentInput
		if err := respond.Decode(r, &in); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		a, err := store.UpdateAppointment(r.Context(), uid, id, in, full)
		if err != nil {
			writeStoreError(w, log, KindAppointment, "update appointment", err)
			return
		}
		respond.JSON(w, http.StatusOK, a)
	}
}

// ---- checklists ----

func ListChecklistsHandler(store *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		list, err := store.ListChecklists(r.Context(), uid)
		if err != nil {
			writeStoreError(w, log, KindChecklist, "list checklists", err)
			return
		}
		respond.JSON(w, http.StatusOK, list)
	}
}

func CreateChecklistHandler(store *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		var in ChecklistInput
		if err := respond.Decode(r, &in); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		c, err := store.CreateChecklist(r.Context(), uid, in)
		if err != nil {
			writeStoreError(w, log, KindChecklist, "create checklist", err)
			return
		}
		respond.JSON(w, http.StatusCreated, c)
	}
}

func GetChecklistHandler(store *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		id, _, ok := pathIDs(w, r, false)
		if !ok {
			return
		}
		c, err := store.GetChecklist(r.Context(), uid, id)
		if err != nil {
			writeStoreError(w, log, KindChecklist, "get checklist", err)
			return
		}
		respond.JSON(w, http.StatusOK, c)
	}
}

func UpdateChecklistHandler(store *Store, full bool, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		id, _, ok := pathIDs(w, r, false)
		if !ok {
			return
		}
		var in ChecklistInput
		if err := respond.Decode(r, &in); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		c, err := store.UpdateChecklist(r.Context(), uid, id, in, full)
		if err != nil {
			writeStoreError(w, log, KindChecklist, "update checklist", err)
			return
		}
		respond.JSON(w, http.StatusOK, c)
	}
}

// ---- shared ----

// DeleteHandler removes an appointment or checklist with its items and score.
func DeleteHandler(store *Store, kind Kind, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		id, _, ok := pathIDs(w, r, false)
		if !ok {
			return
		}
		if err := store.Delete(r.Context(), kind, uid, id); err != nil {
			writeStoreError(w, log, kind, "delete", err)
			return
		}
		respond.NoContent(w)
	}
}

func ListItemsHandler(store *Store, kind Kind, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		id, _, ok := pathIDs(w, r, false)
		if !ok {
			return
		}
		items, err := store.Items(r.Context(), kind, uid, id)
		if err != nil {
			writeStoreError(w, log, kind, "list items", err)
			return
		}
		respond.JSON(w, http.StatusOK, items)
	}
}

func AddItemHandler(store *Store, kind Kind, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		id, _, ok := pathIDs(w, r, false)
		if !ok {
			return
		}
		var in ItemInput
		if err := respond.Decode(r, &in); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		it, err := store.AddItem(r.Context(), kind, uid, id, in)
		if err != nil {
			writeStoreError(w, log, kind, "add item", err)
			return
		}
		respond.JSON(w, http.StatusCreated, it)
	}
}

func UpdateItemHandler(store *Store, kind Kind, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		id, itemID, ok := pathIDs(w, r, true)
		if !ok {
			return
		}
		var in ItemInput
		if err := respond.Decode(r, &in); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		it, err := store.UpdateItem(r.Context(), kind, uid, id, itemID, in)
		if err != nil {
			writeStoreError(w, log, kind, "update item", err)
			return
		}
		respond.JSON(w, http.StatusOK, it)
	}
}

func DeleteItemHandler(store *Store, kind Kind, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		id, itemID, ok := pathIDs(w, r, true)
		if !ok {
			return
		}
		if err := store.DeleteItem(r.Context(), kind, uid, id, itemID); err != nil {
			writeStoreError(w, log, kind, "delete item", err)
			return
		}
		respond.NoContent(w)
	}
}
