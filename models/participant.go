package models

import "time"

type ParticipantStatus string

const (
	ParticipantRegistered   ParticipantStatus = "registered"
	ParticipantWithdrawn    ParticipantStatus = "withdrawn"
	ParticipantDisqualified ParticipantStatus = "disqualified"
)

// Participant links an external registrant (opaque user id from the
// identity subsystem) to a tournament. A registrant appears at most once
// per tournament; only "registered" rows count against capacity.
type Participant struct {
	ID           int               `json:"id" db:"id"`
	TournamentID int               `json:"tournament_id" db:"tournament_id"`
	UserID       int               `json:"user_id" db:"user_id"`
	Level        int               `json:"level" db:"level"`
	Seed         *int              `json:"seed,omitempty" db:"seed"`
	Status       ParticipantStatus `json:"status" db:"status"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
}

// Active reports whether the participant counts toward capacity and is
// eligible for bracket generation.
func (p *Participant) Active() bool {
	return p.Status == ParticipantRegistered
}
