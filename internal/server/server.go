// Package server assembles the HTTP API.
package server

import (
	"database/sql"
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"lifeai-backend/internal/agenda"
	"lifeai-backend/internal/ai"
	"lifeai-backend/internal/analytics"
	"lifeai-backend/internal/assistant"
	"lifeai-backend/internal/auth"
	"lifeai-backend/internal/body"
	"lifeai-backend/internal/exercises"
	"lifeai-backend/internal/logging"
	"lifeai-backend/internal/profile"
	"lifeai-backend/internal/respond"
	"lifeai-backend/internal/scoring"
)

type Options struct {
	DB          *sql.DB
	Log         *zap.Logger
	JWTSecret   []byte
	CORSOrigins []string

	ChatLLM  assistant.Completer
	DietLLM  assistant.Completer
	Policy   ai.Policy
	Sessions *assistant.SessionStore
}

// New wires every store and handler and returns the root handler.
func New(o Options) http.Handler {
	var (
		log      = o.Log
		dbx      = o.DB
		mw       = auth.New(o.JWTSecret)
		events   = analytics.NewRecorder(dbx, log)
		profiles = profile.NewStore(dbx)
		bodies   = body.NewStore(dbx)
		agendas  = agenda.NewStore(dbx)
		scores   = scoring.NewService(dbx, agendas)
		diets    = assistant.NewDietStore(dbx)
		workouts = exercises.NewStore(dbx)

		chat    = assistant.NewChat(o.ChatLLM, o.Policy, o.Sessions)
		dietSvc = assistant.NewDietService(o.DietLLM, o.Policy, diets)
	)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/{$}", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// auth
	mux.HandleFunc("POST /registro/{$}", auth.RegisterHandler(dbx, o.JWTSecret, log))
	mux.HandleFunc("POST /login/{$}", auth.LoginHandler(dbx, o.JWTSecret))
	mux.HandleFunc("POST /logout/{$}", mw.Wrap(auth.LogoutHandler()))
	mux.HandleFunc("GET /me/{$}", mw.Wrap(auth.MeHandler(dbx)))
	mux.HandleFunc("DELETE /conta/{$}", mw.Wrap(auth.DeleteAccountHandler(dbx, log)))

	// profile
	mux.HandleFunc("GET /perfil/{$}", mw.Wrap(profile.GetHandler(profiles, log)))
	mux.HandleFunc("POST /perfil/{$}", mw.Wrap(profile.CreateHandler(profiles, log)))
	mux.HandleFunc("PATCH /perfil/{$}", mw.Wrap(profile.PatchHandler(profiles, log)))

	// body
	mux.HandleFunc("POST /imc/{$}", mw.Wrap(body.CreateRecordHandler(bodies, log)))
	mux.HandleFunc("GET /imc/historico/{$}", mw.Wrap(body.ChartHandler(bodies, log)))
	mux.HandleFunc("GET /imc/registrosConsultas/{$}", mw.Wrap(body.RecordsHandler(bodies, log)))
	mux.HandleFunc("DELETE /imc/{id}/{$}", mw.Wrap(body.DeleteRecordHandler(bodies, log)))
	mux.HandleFunc("GET /composicao-corporal/{$}", mw.Wrap(body.ListCompositionsHandler(bodies, log)))
	mux.HandleFunc("POST /composicao-corporal/{$}", mw.Wrap(body.CreateCompositionHandler(bodies, log)))

	// appointments
	mux.HandleFunc("GET /compromissos/{$}", mw.Wrap(agenda.ListAppointmentsHandler(agendas, log)))
	mux.HandleFunc("POST /compromissos/{$}", mw.Wrap(agenda.CreateAppointmentHandler(agendas, log)))
	mux.HandleFunc("GET /compromissos/{id}/{$}", mw.Wrap(agenda.GetAppointmentHandler(agendas, log)))
	mux.HandleFunc("PUT /compromissos/{id}/{$}", mw.Wrap(agenda.UpdateAppointmentHandler(agendas, true, log)))
	mux.HandleFunc("PATCH /compromissos/{id}/{$}", mw.Wrap(agenda.UpdateAppointmentHandler(agendas, false, log)))
	mux.HandleFunc("DELETE /compromissos/{id}/{$}", mw.Wrap(agenda.DeleteHandler(agendas, agenda.KindAppointment, log)))
	mountItems(mux, mw, agendas, agenda.KindAppointment, "/compromissos/{id}/atividades/", log)
	mux.HandleFunc("POST /compromissos/{id}/pontuacao/{$}", mw.Wrap(scoring.ScoreHandler(scores, agenda.KindAppointment, events, log)))

	// checklists
	mux.HandleFunc("GET /checklists/{$}", mw.Wrap(agenda.ListChecklistsHandler(agendas, log)))
	mux.HandleFunc("POST /checklists/{$}", mw.Wrap(agenda.CreateChecklistHandler(agendas, log)))
	mux.HandleFunc("GET /checklists/{id}/{$}", mw.Wrap(agenda.GetChecklistHandler(agendas, log)))
	mux.HandleFunc("PUT /checklists/{id}/{$}", mw.Wrap(agenda.UpdateChecklistHandler(agendas, true, log)))
	mux.HandleFunc("PATCH /checklists/{id}/{$}", mw.Wrap(agenda.UpdateChecklistHandler(agendas, false, log)))
	mux.HandleFunc("DELETE /checklists/{id}/{$}", mw.Wrap(agenda.DeleteHandler(agendas, agenda.KindChecklist, log)))
	mountItems(mux, mw, agendas, agenda.KindChecklist, "/checklists/{id}/itens/", log)
	mux.HandleFunc("POST /checklists/{id}/pontuacao/{$}", mw.Wrap(scoring.ScoreHandler(scores, agenda.KindChecklist, events, log)))

	mux.HandleFunc("GET /pontuacoes/mensal/{$}", mw.Wrap(scoring.MonthlyHandler(scores, log)))

	// assistant
	mux.HandleFunc("POST /chat-ia/{$}", mw.Wrap(assistant.ChatHandler(chat, profiles, events, log)))
	mux.HandleFunc("DELETE /chat-ia/{sessao_id}/{$}", mw.Wrap(assistant.DeleteSessionHandler(chat)))
	mux.HandleFunc("POST /gerar-dieta-ia/{$}", mw.Wrap(assistant.DietHandler(dietSvc, profiles, events, log)))
	mux.HandleFunc("GET /gerar-dieta-ia/{$}", mw.Wrap(assistant.LatestDietHandler(diets, log)))
	mux.HandleFunc("GET /dietas/historico/{$}", mw.Wrap(assistant.DietHistoryHandler(diets, log)))

	// exercises
	mux.HandleFunc("GET /exercicios/{$}", mw.Wrap(exercises.ListHandler(workouts, log)))
	mux.HandleFunc("POST /exercicios/{$}", mw.Wrap(exercises.CreateHandler(workouts, log)))

	mux.HandleFunc("POST /eventos/{$}", mw.Wrap(analytics.TrackHandler(dbx, log)))

	c := cors.New(cors.Options{
		AllowedOrigins: o.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Content-Type", "Authorization", "Idempotency-Key", logging.RequestIDHeader,
			"X-Platform", "X-Session-Id", "X-App-Version", "X-Device-Locale", "X-Source-Event-Key",
		},
		ExposedHeaders:   []string{logging.RequestIDHeader},
		AllowCredentials: true,
	})

	return logging.Middleware(log, c.Handler(mux))
}

// mountItems registers the child-row routes shared by appointments and checklists.
func mountItems(mux *http.ServeMux, mw auth.Middleware, store *agenda.Store, kind agenda.Kind, base string, log *zap.Logger) {
	mux.HandleFunc("GET "+base+"{$}", mw.Wrap(agenda.ListItemsHandler(store, kind, log)))
	mux.HandleFunc("POST "+base+"{$}", mw.Wrap(agenda.AddItemHandler(store, kind, log)))
	mux.HandleFunc("PATCH "+base+"{item_id}/{$}", mw.Wrap(agenda.UpdateItemHandler(store, kind, log)))
	mux.HandleFunc("DELETE "+base+"{item_id}/{$}", mw.Wrap(agenda.DeleteItemHandler(store, kind, log)))
}
