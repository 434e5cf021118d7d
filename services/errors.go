package services

import "errors"

// Sentinel errors shared across services and the HTTP error mapping.
// Grouped by the engine's error taxonomy: validation, capacity,
// eligibility, conflict, and state errors. No precondition failure ever
// surfaces as an opaque error.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation errors: malformed input, rejected before any mutation.
	ErrTournamentNameRequired    = errors.New("tournament name is required")
	ErrTournamentInvalidFormat   = errors.New("unknown tournament format")
	ErrTournamentInvalidCapacity = errors.New("tournament capacity bounds are invalid")
	ErrTournamentInvalidLevels   = errors.New("tournament level bounds are invalid")
	ErrTournamentInvalidFee      = errors.New("tournament entry fee must not be negative")
	ErrTournamentInvalidDeadline = errors.New("registration deadline must be before the start time")
	ErrMatchInvalidScore         = errors.New("match score is negative or out of range")
	ErrMatchDrawNotAllowed       = errors.New("drawn result is not allowed in an elimination format")

	// Capacity errors.
	ErrTournamentFull = errors.New("tournament registration is full")

	// Eligibility errors.
	ErrLevelOutOfRange = errors.New("registrant level is outside the tournament bounds")
	ErrPaymentDeclined = errors.New("entry fee payment was declined")

	// Conflict errors: concurrent modification or duplicates; the caller
	// may re-read and retry.
	ErrAlreadyRegistered      = errors.New("registrant is already registered for this tournament")
	ErrTournamentNameConflict = errors.New("organizer already has a tournament with this name")
	ErrClosureConflict        = errors.New("registration closure already in progress")

	// State errors: the operation is invalid for the current lifecycle
	// state of the tournament or match.
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")
	ErrRegistrationNotOpen               = errors.New("tournament registration is not open")
	ErrRegistrationDeadlinePassed        = errors.New("registration deadline has passed")
	ErrNotEnoughParticipants             = errors.New("not enough active participants to close registration")
	ErrMatchNotStartable                 = errors.New("match cannot be started in its current state")
	ErrMatchSlotsUnfilled                = errors.New("match participant slots are not both filled")
	ErrMatchNotInProgress                = errors.New("match result requires an in-progress match")
	ErrMatchNotCancelable                = errors.New("match cannot be canceled in its current state")
	ErrWithdrawNotAllowed                = errors.New("withdrawal is only possible while registration is open")

	// Entity-scoped not-found errors.
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant registration not found")
	ErrMatchNotFound       = errors.New("match not found")
)
