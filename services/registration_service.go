package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/compevent/compete-system/metrics"
	"github.com/compevent/compete-system/models"
	"github.com/compevent/compete-system/realtime"
	"github.com/compevent/compete-system/repositories"
)

// RegistrationService admits registrants into tournaments. Every admission
// decision runs under the tournament lock so the capacity check and the
// insert are atomic with respect to concurrent registrations; the unique
// (tournament_id, user_id) constraint backs up the duplicate check.
type RegistrationService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	payments        PaymentConfirmer
	hub             *realtime.Hub
	locks           *TournamentLocks
	logger          *slog.Logger

	now func() time.Time
}

func NewRegistrationService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	payments PaymentConfirmer,
	hub *realtime.Hub,
	locks *TournamentLocks,
	logger *slog.Logger,
) *RegistrationService {
	if payments == nil {
		payments = NoopPaymentConfirmer{}
	}
	return &RegistrationService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		payments:        payments,
		hub:             hub,
		locks:           locks,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *RegistrationService) broadcast(tournamentID int, event string, payload interface{}) {
	if s.hub != nil {
		s.hub.Broadcast(tournamentID, event, payload)
	}
}

type RegisterParams struct {
	TournamentID int
	UserID       int
	Level        int
}

func registrationRejected(outcome string, err error) error {
	metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
	return err
}

// Register runs the admission checks in a fixed order: window open, deadline,
// duplicate, level eligibility, capacity, then payment. The first failure
// wins; payment is only attempted once every free check has passed, so a
// declined account is never debited for a full tournament.
func (s *RegistrationService) Register(ctx context.Context, params RegisterParams) (*models.Participant, int, error) {
	unlock := s.locks.Lock(params.TournamentID)
	defer unlock()

	t, err := s.tournamentRepo.GetByID(ctx, params.TournamentID)
	if err != nil {
		return nil, 0, mapTournamentRepoError(err)
	}

	if t.Status != models.StatusRegistration {
		return nil, 0, registrationRejected("not_open", ErrRegistrationNotOpen)
	}
	if s.now().After(t.RegistrationDeadline) {
		return nil, 0, registrationRejected("deadline", ErrRegistrationDeadlinePassed)
	}
	existing, err := s.participantRepo.FindByUserAndTournament(ctx, params.UserID, params.TournamentID)
	if err != nil && !errors.Is(err, repositories.ErrParticipantNotFound) {
		return nil, 0, err
	}
	if existing != nil && existing.Status != models.ParticipantWithdrawn {
		return nil, 0, registrationRejected("duplicate", ErrAlreadyRegistered)
	}

	if params.Level < t.MinLevel || params.Level > t.MaxLevel {
		return nil, 0, registrationRejected("level", ErrLevelOutOfRange)
	}

	count, err := s.participantRepo.CountActive(ctx, params.TournamentID)
	if err != nil {
		return nil, 0, err
	}
	if count >= t.MaxParticipants {
		return nil, 0, registrationRejected("full", ErrTournamentFull)
	}

	if t.EntryFee > 0 {
		ok, err := s.payments.ConfirmDebit(ctx, params.UserID, t.EntryFee)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			return nil, 0, registrationRejected("payment_declined", ErrPaymentDeclined)
		}
	}

	var participant *models.Participant
	if existing != nil {
		// A withdrawn registrant re-enters through their original row, with
		// a fresh level and registration timestamp.
		if err := s.participantRepo.Reactivate(ctx, existing.ID, params.Level); err != nil {
			return nil, 0, err
		}
		participant, err = s.participantRepo.FindByID(ctx, existing.ID)
		if err != nil {
			return nil, 0, err
		}
	} else {
		participant = &models.Participant{
			TournamentID: params.TournamentID,
			UserID:       params.UserID,
			Level:        params.Level,
			Status:       models.ParticipantRegistered,
		}
		if err := s.participantRepo.Create(ctx, participant); err != nil {
			if errors.Is(err, repositories.ErrParticipantConflict) {
				return nil, 0, registrationRejected("duplicate", ErrAlreadyRegistered)
			}
			return nil, 0, err
		}
	}

	metrics.RegistrationsTotal.WithLabelValues("accepted").Inc()
	s.logger.Info("participant registered",
		slog.Int("tournament_id", params.TournamentID),
		slog.Int("user_id", params.UserID),
		slog.Int("participant_id", participant.ID),
		slog.Int("active_count", count+1),
	)
	s.broadcast(params.TournamentID, realtime.EventTournamentUpdated, map[string]interface{}{
		"tournament_id":       params.TournamentID,
		"active_participants": count + 1,
	})
	return participant, count + 1, nil
}

// Withdraw removes an active registrant while registration is still open.
// After closure the field is frozen and withdrawal is rejected.
func (s *RegistrationService) Withdraw(ctx context.Context, tournamentID, userID int) error {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	if t.Status != models.StatusRegistration {
		return ErrWithdrawNotAllowed
	}

	participant, err := s.participantRepo.FindByUserAndTournament(ctx, userID, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}
	if !participant.Active() {
		return ErrParticipantNotFound
	}

	if err := s.participantRepo.UpdateStatus(ctx, participant.ID, models.ParticipantWithdrawn); err != nil {
		return err
	}

	s.logger.Info("participant withdrew",
		slog.Int("tournament_id", tournamentID),
		slog.Int("user_id", userID),
	)
	s.broadcast(tournamentID, realtime.EventTournamentUpdated, map[string]interface{}{
		"tournament_id":  tournamentID,
		"withdrawn_user": userID,
	})
	return nil
}

// Disqualify marks a registrant as disqualified before the bracket exists.
// Disqualified registrants cannot re-register.
func (s *RegistrationService) Disqualify(ctx context.Context, tournamentID, participantID int) error {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return mapTournamentRepoError(err)
	}
	if t.Status != models.StatusRegistration {
		return ErrWithdrawNotAllowed
	}

	participant, err := s.participantRepo.FindByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}
	if participant.TournamentID != tournamentID || !participant.Active() {
		return ErrParticipantNotFound
	}

	if err := s.participantRepo.UpdateStatus(ctx, participant.ID, models.ParticipantDisqualified); err != nil {
		return err
	}

	s.logger.Info("participant disqualified",
		slog.Int("tournament_id", tournamentID),
		slog.Int("participant_id", participantID),
	)
	return nil
}

// ListParticipants returns the tournament's registrations, optionally
// filtered by status.
func (s *RegistrationService) ListParticipants(ctx context.Context, tournamentID int, statusFilter *models.ParticipantStatus) ([]*models.Participant, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		return nil, mapTournamentRepoError(err)
	}
	return s.participantRepo.ListByTournament(ctx, tournamentID, statusFilter)
}
