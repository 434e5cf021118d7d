package handlers

import (
	"net/http"

	"github.com/compevent/compete-system/services"
)

type BracketHandler struct {
	brackets  *services.BracketService
	standings *services.StandingsService
}

func NewBracketHandler(brackets *services.BracketService, standings *services.StandingsService) *BracketHandler {
	return &BracketHandler{brackets: brackets, standings: standings}
}

func (h *BracketHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	snapshot, err := h.brackets.Snapshot(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot, nil)
}

func (h *BracketHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := idParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	standings, err := h.standings.Compute(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil)
}
