package models

import "time"

type MatchStatus string

const (
	// MatchPending marks a structural placeholder created at generation
	// time whose participant slots are not both filled yet.
	MatchPending    MatchStatus = "pending"
	MatchScheduled  MatchStatus = "scheduled"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchCanceled   MatchStatus = "canceled"
)

// IsResolved reports whether the match can no longer produce a result.
func (s MatchStatus) IsResolved() bool {
	return s == MatchCompleted || s == MatchCanceled
}

// BracketSide distinguishes the sections of a double-elimination bracket.
// Single-elimination, round-robin and swiss matches all live on SideWinners.
type BracketSide string

const (
	SideWinners    BracketSide = "winners"
	SideLosers     BracketSide = "losers"
	SideGrandFinal BracketSide = "grand_final"
)

type Match struct {
	ID              int         `json:"id" db:"id"`
	TournamentID    int         `json:"tournament_id" db:"tournament_id"`
	Round           int         `json:"round" db:"round"`
	OrderInRound    int         `json:"order_in_round" db:"order_in_round"`
	Side            BracketSide `json:"side" db:"side"`
	BracketUID      string      `json:"bracket_uid" db:"bracket_uid"`
	P1ParticipantID *int        `json:"p1_participant_id,omitempty" db:"p1_participant_id"`
	P2ParticipantID *int        `json:"p2_participant_id,omitempty" db:"p2_participant_id"`
	ScoreP1         *int        `json:"score_p1,omitempty" db:"score_p1"`
	ScoreP2         *int        `json:"score_p2,omitempty" db:"score_p2"`
	WinnerID        *int        `json:"winner_participant_id,omitempty" db:"winner_participant_id"`
	IsDraw          bool        `json:"is_draw" db:"is_draw"`
	Status          MatchStatus `json:"status" db:"status"`

	// Static round-linkage, computed once at generation time. The winner of
	// this match fills slot WinnerToSlot of match NextMatchID; in
	// double-elimination the loser is routed through LoserNextMatchID.
	NextMatchID      *int `json:"next_match_id,omitempty" db:"next_match_id"`
	WinnerToSlot     *int `json:"winner_to_slot,omitempty" db:"winner_to_slot"`
	LoserNextMatchID *int `json:"loser_next_match_id,omitempty" db:"loser_next_match_id"`
	LoserToSlot      *int `json:"loser_to_slot,omitempty" db:"loser_to_slot"`

	MatchTime time.Time `json:"match_time" db:"match_time"`
}

// SlotsFilled reports whether both participant slots are populated, a
// precondition for starting or completing the match.
func (m *Match) SlotsFilled() bool {
	return m.P1ParticipantID != nil && m.P2ParticipantID != nil
}
