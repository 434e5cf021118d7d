package handlers

import (
	"net/http"
	"time"

	"github.com/compevent/compete-system/middleware"
	"github.com/compevent/compete-system/models"
	"github.com/compevent/compete-system/repositories"
	"github.com/compevent/compete-system/services"
)

type TournamentHandler struct {
	service *services.TournamentService
}

func NewTournamentHandler(service *services.TournamentService) *TournamentHandler {
	return &TournamentHandler{service: service}
}

type createTournamentRequest struct {
	Name                 string  `json:"name"`
	Description          *string `json:"description"`
	Format               string  `json:"format"`
	MinParticipants      int     `json:"min_participants"`
	MaxParticipants      int     `json:"max_participants"`
	MinLevel             int     `json:"min_level"`
	MaxLevel             int     `json:"max_level"`
	EntryFee             int     `json:"entry_fee"`
	RegistrationDeadline string  `json:"registration_deadline"`
	StartTime            string  `json:"start_time"`
}

func (req *createTournamentRequest) toModel(organizerID int) (*models.Tournament, error) {
	deadline, err := time.Parse(time.RFC3339, req.RegistrationDeadline)
	if err != nil {
		return nil, services.ErrTournamentInvalidDeadline
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, services.ErrTournamentInvalidDeadline
	}
	return &models.Tournament{
		Name:                 req.Name,
		Description:          req.Description,
		Format:               models.TournamentFormat(req.Format),
		OrganizerID:          organizerID,
		MinParticipants:      req.MinParticipants,
		MaxParticipants:      req.MaxParticipants,
		MinLevel:             req.MinLevel,
		MaxLevel:             req.MaxLevel,
		EntryFee:             req.EntryFee,
		RegistrationDeadline: deadline,
		StartTime:            start,
	}, nil
}

func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	organizerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createTournamentRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := req.toModel(organizerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := h.service.Create(r.Context(), tournament); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tournament, nil)
}

func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	withDetails := r.URL.Query().Get("details") == "true"
	tournament, err := h.service.GetTournament(r.Context(), id, withDetails)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tournament, nil)
}

func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ListTournamentsFilter{Limit: 50}
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		status := models.TournamentStatus(raw)
		filter.Status = &status
	}
	if raw := q.Get("format"); raw != "" {
		format := models.TournamentFormat(raw)
		if !format.Valid() {
			mapServiceErrorToHTTP(w, r, services.ErrTournamentInvalidFormat)
			return
		}
		filter.Format = &format
	}
	if raw := q.Get("limit"); raw != "" {
		if limit, err := parsePositiveInt(raw); err == nil {
			filter.Limit = limit
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if offset, err := parsePositiveInt(raw); err == nil {
			filter.Offset = offset
		}
	}

	tournaments, err := h.service.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil)
}

func (h *TournamentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	organizerID, _ := middleware.UserIDFromContext(r.Context())

	var req createTournamentRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := req.toModel(organizerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	tournament.ID = id

	if err := h.service.Update(r.Context(), tournament); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tournament, nil)
}

func (h *TournamentHandler) OpenRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.service.OpenRegistration(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": models.StatusRegistration}, nil)
}

func (h *TournamentHandler) CloseRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	snapshot, err := h.service.CloseRegistration(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot, nil)
}

func (h *TournamentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.service.Cancel(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"status": models.StatusCanceled}, nil)
}

func (h *TournamentHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	url, err := h.service.SetLogo(r.Context(), id, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"logo_url": url}, nil)
}
