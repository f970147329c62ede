package profile

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"lifeai-backend/internal/auth"
	"lifeai-backend/internal/respond"
)

func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		respond.Error(w, http.StatusBadRequest, ve.Msg)
	case errors.Is(err, ErrExists):
		respond.Error(w, http.StatusBadRequest, "Este usuário já possui um perfil.")
	case errors.Is(err, ErrNotFound):
		respond.Error(w, http.StatusNotFound, "Perfil não encontrado. Complete seu cadastro.")
	default:
		log.Error("profile", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "db error")
	}
}

func GetHandler(store *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		p, err := store.Get(r.Context(), uid)
		if err != nil {
			writeError(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, p)
	}
}

func CreateHandler(store *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		var in Input
		if err := respond.Decode(r, &in); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		p, err := store.Create(r.Context(), uid, in)
		if err != nil {
			writeError(w, log, err)
			return
		}
		respond.JSON(w, http.StatusCreated, p)
	}
}

func PatchHandler(store *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		var in Input
		if err := respond.Decode(r, &in); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid json")
			return
		}
		p, err := store.Patch(r.Context(), uid, in)
		if err != nil {
			writeError(w, log, err)
			return
		}
		respond.JSON(w, http.StatusOK, p)
	}
}
