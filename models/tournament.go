package models

import "time"

// TournamentStatus mirrors the tournament_status ENUM in the database.
type TournamentStatus string

const (
	StatusDraft              TournamentStatus = "draft"
	StatusRegistration       TournamentStatus = "registration"
	StatusRegistrationClosed TournamentStatus = "registration_closed"
	StatusActive             TournamentStatus = "active"
	StatusCompleted          TournamentStatus = "completed"
	StatusCanceled           TournamentStatus = "canceled"
)

// IsTerminal reports whether no further status transitions are possible.
func (s TournamentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// TournamentFormat is the closed set of supported competition formats.
type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "single_elimination"
	FormatDoubleElimination TournamentFormat = "double_elimination"
	FormatRoundRobin        TournamentFormat = "round_robin"
	FormatSwiss             TournamentFormat = "swiss"
)

// IsElimination reports whether the format knocks participants out, which
// also decides whether drawn results are ever acceptable.
func (f TournamentFormat) IsElimination() bool {
	return f == FormatSingleElimination || f == FormatDoubleElimination
}

func (f TournamentFormat) Valid() bool {
	switch f {
	case FormatSingleElimination, FormatDoubleElimination, FormatRoundRobin, FormatSwiss:
		return true
	}
	return false
}

type Tournament struct {
	ID                   int              `json:"id" db:"id"`
	Name                 string           `json:"name" db:"name"`
	Description          *string          `json:"description,omitempty" db:"description"`
	Format               TournamentFormat `json:"format" db:"format"`
	OrganizerID          int              `json:"organizer_id" db:"organizer_id"`
	MinParticipants      int              `json:"min_participants" db:"min_participants"`
	MaxParticipants      int              `json:"max_participants" db:"max_participants"`
	MinLevel             int              `json:"min_level" db:"min_level"`
	MaxLevel             int              `json:"max_level" db:"max_level"`
	EntryFee             int              `json:"entry_fee" db:"entry_fee"`
	RegistrationDeadline time.Time        `json:"registration_deadline" db:"registration_deadline"`
	StartTime            time.Time        `json:"start_time" db:"start_time"`
	Status               TournamentStatus `json:"status" db:"status"`
	// SwissRounds is fixed at bracket generation for swiss tournaments and
	// stays nil for every other format.
	SwissRounds         *int      `json:"swiss_rounds,omitempty" db:"swiss_rounds"`
	WinnerParticipantID *int      `json:"winner_participant_id,omitempty" db:"winner_participant_id"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	LogoKey             *string   `json:"-" db:"logo_key"`
	LogoURL             *string   `json:"logo_url,omitempty" db:"-"`

	// Optional related entities, populated by services when requested.
	Participants []Participant `json:"participants,omitempty" db:"-"`
	Matches      []Match       `json:"matches,omitempty" db:"-"`
}
