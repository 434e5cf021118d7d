package services

import (
	"errors"
	"time"

	"github.com/compevent/compete-system/models"
	"github.com/compevent/compete-system/repositories"
)

// isValidStatusTransition encodes the directed lifecycle order
// draft -> registration -> registration_closed -> active -> completed,
// with canceled reachable from every non-terminal status. Status-changing
// operations consult it before attempting the compare-and-swap, which then
// guards the same table against concurrent movers.
func isValidStatusTransition(current, next models.TournamentStatus) bool {
	if current.IsTerminal() {
		return false
	}
	allowed := map[models.TournamentStatus][]models.TournamentStatus{
		models.StatusDraft:              {models.StatusRegistration, models.StatusCanceled},
		models.StatusRegistration:       {models.StatusRegistrationClosed, models.StatusCanceled},
		models.StatusRegistrationClosed: {models.StatusActive, models.StatusCanceled},
		models.StatusActive:             {models.StatusCompleted, models.StatusCanceled},
	}
	for _, s := range allowed[current] {
		if next == s {
			return true
		}
	}
	return false
}

func validateTournamentConfig(t *models.Tournament) error {
	if t.Name == "" {
		return ErrTournamentNameRequired
	}
	if !t.Format.Valid() {
		return ErrTournamentInvalidFormat
	}
	if t.MinParticipants < 2 || t.MaxParticipants < t.MinParticipants {
		return ErrTournamentInvalidCapacity
	}
	if t.MinLevel > t.MaxLevel {
		return ErrTournamentInvalidLevels
	}
	if t.EntryFee < 0 {
		return ErrTournamentInvalidFee
	}
	if t.RegistrationDeadline.IsZero() || t.StartTime.IsZero() {
		return ErrTournamentInvalidDeadline
	}
	if !t.RegistrationDeadline.Before(t.StartTime) {
		return ErrTournamentInvalidDeadline
	}
	return nil
}

// mapTournamentRepoError translates repository sentinels into the service
// taxonomy so handlers only ever see service errors.
func mapTournamentRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTournamentStatusConflict):
		return ErrTournamentInvalidStatusTransition
	default:
		return err
	}
}

func participantsToValues(slice []*models.Participant) []models.Participant {
	result := make([]models.Participant, 0, len(slice))
	for _, ptr := range slice {
		if ptr != nil {
			result = append(result, *ptr)
		}
	}
	return result
}

func matchesToValues(slice []*models.Match) []models.Match {
	result := make([]models.Match, 0, len(slice))
	for _, ptr := range slice {
		if ptr != nil {
			result = append(result, *ptr)
		}
	}
	return result
}

// defaultMatchTime anchors generated matches to the tournament start,
// nudged forward when generation happens after the nominal start.
func defaultMatchTime(t *models.Tournament, now time.Time) time.Time {
	if now.After(t.StartTime) {
		return now.Add(15 * time.Minute)
	}
	return t.StartTime
}
