package body

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"lifeai-backend/internal/auth"
	"lifeai-backend/internal/respond"
)

func writeError(w http.ResponseWriter, log *zap.Logger, op string, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		respond.Error(w, http.StatusBadRequest, ve.Msg)
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "Registro não encontrado.")
	default:
		log.Error(op, zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "db error")
	}
}

// CreateRecordHandler serves POST /imc/.
func CreateRecordHandler(store *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		var in RecordInput
		if err := respond.Decode(r, &in); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		rec, err := store.AddRecord(r.Context(), uid, in)
		if err != nil {
			writeError(w, log, "add body record", err)
			return
		}
		respond.JSON(w, http.StatusCreated, map[string]any{
			"mensagem":      "Registro salvo com sucesso!",
			"id":            rec.ID,
			"imc":           rec.BMI,
			"classificacao": rec.Classification,
		})
	}
}

// ChartHandler serves GET /imc/historico/.
func ChartHandler(store *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		points, err := store.Chart(r.Context(), uid)
		if err != nil {
			writeError(w, log, "bmi chart", err)
			return
		}
		respond.JSON(w, http.StatusOK, points)
	}
}

// RecordsHandler serves GET /imc/registrosConsultas/.
func RecordsHandler(store *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		recs, err := store.Records(r.Context(), uid)
		if err != nil {
			writeError(w, log, "body records", err)
			return
		}
		respond.JSON(w, http.StatusOK, recs)
	}
}

// DeleteRecordHandler serves DELETE /imc/{id}/.
func DeleteRecordHandler(store *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		id, ok := respond.PathID(r, "id")
		if !ok {
			respond.Error(w, http.StatusBadRequest, "invalid id")
			return
		}
		if err := store.DeleteRecord(r.Context(), uid, id); err != nil {
			writeError(w, log, "delete body record", err)
			return
		}
		respond.NoContent(w)
	}
}

// ListCompositionsHandler serves GET /composicao-corporal/.
func ListCompositionsHandler(store *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		list, err := store.Compositions(r.Context(), uid)
		if err != nil {
			writeError(w, log, "compositions", err)
			return
		}
		respond.JSON(w, http.StatusOK, list)
	}
}

// CreateCompositionHandler serves POST /composicao-corporal/.
func CreateCompositionHandler(store *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		var in Composition
		if err := respond.Decode(r, &in); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		c, err := store.AddComposition(r.Context(), uid, in)
		if err != nil {
			writeError(w, log, "add composition", err)
			return
		}
		respond.JSON(w, http.StatusCreated, c)
	}
}
