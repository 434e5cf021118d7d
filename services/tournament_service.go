package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/compevent/compete-system/metrics"
	"github.com/compevent/compete-system/models"
	"github.com/compevent/compete-system/realtime"
	"github.com/compevent/compete-system/repositories"
	"github.com/compevent/compete-system/storage"
	"golang.org/x/sync/errgroup"
)

// TournamentService owns the tournament lifecycle: creation, configuration
// edits, the status machine, registration closure with bracket generation,
// and cancellation with match cascade.
type TournamentService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	brackets        *BracketService
	uploader        storage.FileUploader
	hub             *realtime.Hub
	locks           *TournamentLocks
	logger          *slog.Logger
}

// NewTournamentService wires the lifecycle service. uploader and hub may be
// nil; logo uploads and event broadcasts are then disabled.
func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	brackets *BracketService,
	uploader storage.FileUploader,
	hub *realtime.Hub,
	locks *TournamentLocks,
	logger *slog.Logger,
) *TournamentService {
	return &TournamentService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		brackets:        brackets,
		uploader:        uploader,
		hub:             hub,
		locks:           locks,
		logger:          logger,
	}
}

func (s *TournamentService) broadcast(tournamentID int, event string, payload interface{}) {
	if s.hub != nil {
		s.hub.Broadcast(tournamentID, event, payload)
	}
}

func (s *TournamentService) attachLogoURL(t *models.Tournament) {
	if s.uploader != nil && t.LogoKey != nil {
		url := s.uploader.GetPublicURL(*t.LogoKey)
		if url != "" {
			t.LogoURL = &url
		}
	}
}

// Create validates the configuration and stores the tournament in draft.
func (s *TournamentService) Create(ctx context.Context, t *models.Tournament) error {
	if err := validateTournamentConfig(t); err != nil {
		return err
	}
	t.Status = models.StatusDraft

	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return ErrTournamentNameConflict
		}
		return mapTournamentRepoError(err)
	}

	s.logger.Info("tournament created",
		slog.Int("tournament_id", t.ID),
		slog.String("format", string(t.Format)),
		slog.Int("organizer_id", t.OrganizerID),
	)
	return nil
}

// GetTournament returns one tournament; withDetails also loads participants
// and matches in parallel.
func (s *TournamentService) GetTournament(ctx context.Context, id int, withDetails bool) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	s.attachLogoURL(t)

	if !withDetails {
		return t, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		participants, err := s.participantRepo.ListByTournament(gCtx, id, nil)
		if err != nil {
			return err
		}
		t.Participants = participantsToValues(participants)
		return nil
	})
	g.Go(func() error {
		matchList, err := s.matchRepo.ListByTournament(gCtx, id, repositories.ListMatchesFilter{})
		if err != nil {
			return err
		}
		t.Matches = matchesToValues(matchList)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load tournament %d details: %w", id, err)
	}
	return t, nil
}

func (s *TournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range tournaments {
		s.attachLogoURL(&tournaments[i])
	}
	return tournaments, nil
}

// Update edits the tournament configuration. Edits are rejected once
// registration has closed; while registration is open, capacity may not be
// shrunk below the current active participant count.
func (s *TournamentService) Update(ctx context.Context, t *models.Tournament) error {
	unlock := s.locks.Lock(t.ID)
	defer unlock()

	current, err := s.tournamentRepo.GetByID(ctx, t.ID)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	if current.Status != models.StatusDraft && current.Status != models.StatusRegistration {
		return ErrTournamentInvalidStatusTransition
	}

	t.Format = current.Format
	if err := validateTournamentConfig(t); err != nil {
		return err
	}

	if current.Status == models.StatusRegistration {
		count, err := s.participantRepo.CountActive(ctx, t.ID)
		if err != nil {
			return err
		}
		if t.MaxParticipants < count {
			return ErrTournamentInvalidCapacity
		}
	}

	if err := s.tournamentRepo.Update(ctx, t); err != nil {
		return mapTournamentRepoError(err)
	}
	s.broadcast(t.ID, realtime.EventTournamentUpdated, t)
	return nil
}

// OpenRegistration moves a draft tournament into the registration window.
func (s *TournamentService) OpenRegistration(ctx context.Context, id int) error {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	if !isValidStatusTransition(t.Status, models.StatusRegistration) {
		return ErrTournamentInvalidStatusTransition
	}
	err = s.tournamentRepo.CompareAndSwapStatus(ctx, nil, id, models.StatusDraft, models.StatusRegistration)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	s.logger.Info("registration opened", slog.Int("tournament_id", id))
	s.broadcast(id, realtime.EventTournamentUpdated, map[string]interface{}{
		"tournament_id": id,
		"status":        models.StatusRegistration,
	})
	return nil
}

// CloseRegistration freezes the participant list, generates and stores the
// bracket, and activates the tournament. The whole sequence runs under the
// tournament lock and is entered exactly once: the registration ->
// registration_closed swap is the gate, and a lost swap surfaces as
// ErrClosureConflict.
func (s *TournamentService) CloseRegistration(ctx context.Context, id int) (*models.BracketSnapshot, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}
	if !isValidStatusTransition(t.Status, models.StatusRegistrationClosed) {
		return nil, ErrTournamentInvalidStatusTransition
	}

	count, err := s.participantRepo.CountActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if count < t.MinParticipants {
		return nil, ErrNotEnoughParticipants
	}

	err = s.tournamentRepo.CompareAndSwapStatus(ctx, nil, id, models.StatusRegistration, models.StatusRegistrationClosed)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentStatusConflict) {
			return nil, ErrClosureConflict
		}
		return nil, mapTournamentRepoError(err)
	}

	registered := models.ParticipantRegistered
	participants, err := s.participantRepo.ListByTournament(ctx, id, &registered)
	if err != nil {
		return nil, err
	}

	if err := s.brackets.GenerateAndSave(ctx, t, participants); err != nil {
		return nil, err
	}

	err = s.tournamentRepo.CompareAndSwapStatus(ctx, nil, id, models.StatusRegistrationClosed, models.StatusActive)
	if err != nil {
		return nil, mapTournamentRepoError(err)
	}

	snapshot, err := s.brackets.Snapshot(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("registration closed",
		slog.Int("tournament_id", id),
		slog.Int("participants", count),
	)
	s.broadcast(id, realtime.EventBracketGenerated, snapshot)
	s.broadcast(id, realtime.EventTournamentUpdated, map[string]interface{}{
		"tournament_id": id,
		"status":        models.StatusActive,
	})
	return snapshot, nil
}

// Cancel aborts a tournament from any non-terminal status and cancels every
// unresolved match.
func (s *TournamentService) Cancel(ctx context.Context, id int) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	if !isValidStatusTransition(t.Status, models.StatusCanceled) {
		return ErrTournamentInvalidStatusTransition
	}

	err = s.tournamentRepo.CompareAndSwapStatus(ctx, nil, id, t.Status, models.StatusCanceled)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	if err := s.matchRepo.CancelUnresolvedByTournament(ctx, id); err != nil {
		return err
	}

	metrics.TournamentsCompleted.WithLabelValues(string(models.StatusCanceled)).Inc()
	s.logger.Info("tournament canceled",
		slog.Int("tournament_id", id),
		slog.String("previous_status", string(t.Status)),
	)
	s.broadcast(id, realtime.EventTournamentUpdated, map[string]interface{}{
		"tournament_id": id,
		"status":        models.StatusCanceled,
	})
	return nil
}

// AutoCloseDueRegistrations sweeps tournaments whose registration deadline
// has passed. Ones that reached their minimum are closed and activated; the
// rest are canceled. Failures are logged per tournament so one bad row does
// not stall the sweep.
func (s *TournamentService) AutoCloseDueRegistrations(ctx context.Context, now time.Time) {
	due, err := s.tournamentRepo.ListDueForClosure(ctx, now)
	if err != nil {
		s.logger.Error("failed to list tournaments due for closure", slog.Any("error", err))
		return
	}

	for _, t := range due {
		if _, err := s.CloseRegistration(ctx, t.ID); err != nil {
			switch {
			case errors.Is(err, ErrNotEnoughParticipants):
				if cancelErr := s.Cancel(ctx, t.ID); cancelErr != nil {
					s.logger.Error("failed to cancel underfilled tournament",
						slog.Int("tournament_id", t.ID), slog.Any("error", cancelErr))
					continue
				}
				s.logger.Info("tournament canceled at deadline, below minimum",
					slog.Int("tournament_id", t.ID))
			case errors.Is(err, ErrClosureConflict), errors.Is(err, ErrTournamentInvalidStatusTransition):
				// Someone closed or canceled it between the sweep query and
				// the lock; nothing to do.
			default:
				s.logger.Error("failed to auto-close registration",
					slog.Int("tournament_id", t.ID), slog.Any("error", err))
			}
		}
	}
}

// SetLogo uploads the tournament logo under a fresh key, records the key,
// and removes the superseded object. Keys carry an upload timestamp so a
// replacement never overwrites an object a client may still be fetching.
func (s *TournamentService) SetLogo(ctx context.Context, id int, contentType string, reader io.Reader) (string, error) {
	if s.uploader == nil {
		return "", errors.New("logo storage is not configured")
	}

	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		return "", mapTournamentRepoError(err)
	}

	key := fmt.Sprintf("tournaments/%d/logo-%d", id, time.Now().UnixNano())
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return "", fmt.Errorf("failed to upload logo for tournament %d: %w", id, err)
	}

	if err := s.tournamentRepo.UpdateLogoKey(ctx, id, &result.Key); err != nil {
		return "", mapTournamentRepoError(err)
	}

	if t.LogoKey != nil && *t.LogoKey != result.Key {
		// Best effort: an orphaned object costs storage, not correctness.
		if err := s.uploader.Delete(ctx, *t.LogoKey); err != nil {
			s.logger.Warn("failed to delete replaced logo",
				slog.Int("tournament_id", id),
				slog.String("key", *t.LogoKey),
				slog.Any("error", err),
			)
		}
	}

	return result.Location, nil
}
