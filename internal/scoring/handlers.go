package scoring

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"lifeai-backend/internal/agenda"
	"lifeai-backend/internal/analytics"
	"lifeai-backend/internal/auth"
	"lifeai-backend/internal/respond"
)

func scoreResponse(sc Score) map[string]any {
	tier := sc.Tier()
	return map[string]any{
		sc.Kind.IDField(): sc.ParentID,
		"qtd_total_atv":   sc.Total,
		"qtd_atv_done":    sc.Completed,
		"porcentagem":     Round2(sc.Percentage),
		"nivel":           tier,
		"emoji":           tier.Emoji(),
		"criado_em":       sc.CreatedAt,
	}
}

// ScoreHandler serves POST /compromissos/{id}/pontuacao/ and /checklists/{id}/pontuacao/.
func ScoreHandler(svc *Service, kind agenda.Kind, events *analytics.Recorder, log *zap.Logger) http.HandlerFunc {
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

		sc, err := svc.Score(r.Context(), kind, id, uid)
		switch {
		case err == nil:
		case errors.Is(err, agenda.ErrNotFound):
			if kind == agenda.KindChecklist {
				respond.Error(w, http.StatusNotFound, "Checklist não encontrado")
			} else {
				respond.Error(w, http.StatusNotFound, "Compromisso não encontrado")
			}
			return
		case errors.Is(err, ErrNoItems):
			if kind == agenda.KindChecklist {
				respond.Error(w, http.StatusBadRequest, "Checklist sem itens")
			} else {
				respond.Error(w, http.StatusBadRequest, "Compromisso sem atividades")
			}
			return
		default:
			log.Error("score", zap.String("kind", string(kind)), zap.Int64("parent_id", id), zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "db error")
			return
		}

		events.Track(r, analytics.EventScoreGenerated, map[string]any{
			"kind":        string(kind),
			"parent_id":   id,
			"porcentagem": Round2(sc.Percentage),
			"nivel":       string(sc.Tier()),
		})

		respond.JSON(w, http.StatusOK, scoreResponse(sc))
	}
}

// MonthlyHandler serves GET /pontuacoes/mensal/?ano=&mes=[&tipo=checklist].
func MonthlyHandler(svc *Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		yearRaw, monthRaw := strings.TrimSpace(q.Get("ano")), strings.TrimSpace(q.Get("mes"))
		if yearRaw == "" || monthRaw == "" {
			respond.Error(w, http.StatusBadRequest, "Ano e mês são obrigatórios.")
			return
		}
		year, errY := strconv.Atoi(yearRaw)
		month, errM := strconv.Atoi(monthRaw)
		if errY != nil || errM != nil {
			respond.Error(w, http.StatusBadRequest, "Ano e mês devem ser números.")
			return
		}
		if month < 1 || month > 12 {
			respond.Error(w, http.StatusBadRequest, "Mês deve estar entre 1 e 12.")
			return
		}

		kind, err := agenda.ParseKind(q.Get("tipo"))
		if err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}

		entries, err := svc.Monthly(r.Context(), kind, uid, year, time.Month(month))
		if err != nil {
			log.Error("monthly scores", zap.Int64("user_id", uid), zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "db error")
			return
		}

		out := make([]map[string]any, 0, len(entries))
		for _, e := range entries {
			tier := TierFor(e.Percentage)
			out = append(out, map[string]any{
				kind.IDField(): e.ParentID,
				"data":         e.Date,
				"porcentagem":  Round2(e.Percentage),
				"nivel":        tier,
				"emoji":        tier.Emoji(),
			})
		}
		respond.JSON(w, http.StatusOK, out)
	}
}
