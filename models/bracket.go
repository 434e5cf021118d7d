package models

// BracketRound groups the matches of one round on one bracket side.
// Completed is true once every match in the round is resolved.
type BracketRound struct {
	Round     int         `json:"round"`
	Side      BracketSide `json:"side"`
	Completed bool        `json:"completed"`
	Matches   []Match     `json:"matches"`
}

// BracketSnapshot is the read-side view of a tournament's schedule:
// ordered rounds with their matches plus the participant list they refer to.
type BracketSnapshot struct {
	TournamentID int              `json:"tournament_id"`
	Format       TournamentFormat `json:"format"`
	Rounds       []BracketRound   `json:"rounds"`
	Participants []Participant    `json:"participants"`
}
