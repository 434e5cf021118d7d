package models

// Standing is a derived ranking row. It is recomputed from completed
// matches on every read and is never written back to storage.
type Standing struct {
	ParticipantID   int `json:"participant_id"`
	UserID          int `json:"user_id"`
	Played          int `json:"played"`
	Wins            int `json:"wins"`
	Draws           int `json:"draws"`
	Losses          int `json:"losses"`
	Points          int `json:"points"`
	ScoreFor        int `json:"score_for"`
	ScoreAgainst    int `json:"score_against"`
	ScoreDifference int `json:"score_difference"`
	Rank            int `json:"rank"`
	// DepthReached is the furthest round the participant appeared in; only
	// meaningful for elimination formats, where it replaces Points as the
	// primary ranking key.
	DepthReached int `json:"depth_reached,omitempty"`
}
