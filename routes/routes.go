package routes

import (
	"net/http"

	"github.com/compevent/compete-system/handlers"
	appmiddleware "github.com/compevent/compete-system/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Auth         *appmiddleware.Authenticator
	Tournaments  *handlers.TournamentHandler
	Participants *handlers.ParticipantHandler
	Matches      *handlers.MatchHandler
	Brackets     *handlers.BracketHandler
	WebSocket    *handlers.WebSocketHandler
}

const roleOrganizer = "organizer"
const roleAdmin = "admin"

func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(appmiddleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/tournaments", func(r chi.Router) {
		r.Get("/", deps.Tournaments.List)
		r.Get("/{tournamentID}", deps.Tournaments.Get)
		r.Get("/{tournamentID}/participants", deps.Participants.List)
		r.Get("/{tournamentID}/matches", deps.Matches.ListByTournament)
		r.Get("/{tournamentID}/bracket", deps.Brackets.GetBracket)
		r.Get("/{tournamentID}/standings", deps.Brackets.GetStandings)

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.Authenticate)

			r.Post("/{tournamentID}/register", deps.Participants.Register)
			r.Delete("/{tournamentID}/register", deps.Participants.Withdraw)

			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(roleOrganizer, roleAdmin))

				r.Post("/", deps.Tournaments.Create)
				r.Put("/{tournamentID}", deps.Tournaments.Update)
				r.Post("/{tournamentID}/open-registration", deps.Tournaments.OpenRegistration)
				r.Post("/{tournamentID}/close-registration", deps.Tournaments.CloseRegistration)
				r.Post("/{tournamentID}/cancel", deps.Tournaments.Cancel)
				r.Post("/{tournamentID}/logo", deps.Tournaments.UploadLogo)
				r.Post("/{tournamentID}/participants/{participantID}/disqualify", deps.Participants.Disqualify)
			})
		})
	})

	r.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", deps.Matches.Get)

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.Authenticate)
			r.Use(appmiddleware.RequireRole(roleOrganizer, roleAdmin))

			r.Post("/{matchID}/start", deps.Matches.Start)
			r.Post("/{matchID}/result", deps.Matches.SubmitResult)
			r.Post("/{matchID}/cancel", deps.Matches.Cancel)
		})
	})

	r.Get("/ws/tournaments/{tournamentID}", deps.WebSocket.Subscribe)

	return r
}
