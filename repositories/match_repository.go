package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/compevent/compete-system/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchParticipantInvalid = errors.New("match participant reference invalid")
	ErrMatchStateConflict      = errors.New("match state changed concurrently")
	ErrMatchSlotOccupied       = errors.New("match slot already occupied")
)

type ListMatchesFilter struct {
	Round  *int
	Side   *models.BracketSide
	Status *models.MatchStatus
}

type MatchRepository interface {
	// CreateBatch stores all matches of a generated bracket in one
	// transaction and fills in their ids.
	CreateBatch(ctx context.Context, matches []*models.Match) error
	UpdateLinks(ctx context.Context, exec SQLExecutor, id int, nextMatchID, winnerToSlot, loserNextMatchID, loserToSlot *int) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, filter ListMatchesFilter) ([]*models.Match, error)
	// TransitionStatus flips the status only when the match is still in the
	// expected source state; ErrMatchStateConflict otherwise.
	TransitionStatus(ctx context.Context, id int, from, to models.MatchStatus) error
	// Complete records scores and winner, guarded on in_progress.
	Complete(ctx context.Context, id int, scoreP1, scoreP2 int, winnerID *int, isDraw bool) error
	// FillSlot writes the participant into the given slot only if it is
	// still empty, so two feeding matches cannot race into the same slot.
	FillSlot(ctx context.Context, id int, slot int, participantID int) error
	// ScheduleIfReady promotes a pending match whose slots are both filled.
	ScheduleIfReady(ctx context.Context, id int) (bool, error)
	SetParticipants(ctx context.Context, id int, p1ParticipantID, p2ParticipantID *int) error
	CancelUnresolvedByTournament(ctx context.Context, tournamentID int) error
	CountUnresolvedByTournament(ctx context.Context, tournamentID int) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, tournament_id, round, order_in_round, side, bracket_uid,
	p1_participant_id, p2_participant_id, score_p1, score_p2,
	winner_participant_id, is_draw, status,
	next_match_id, winner_to_slot, loser_next_match_id, loser_to_slot,
	match_time`

func scanMatch(row interface {
	Scan(dest ...interface{}) error
}, m *models.Match) error {
	return row.Scan(
		&m.ID, &m.TournamentID, &m.Round, &m.OrderInRound, &m.Side, &m.BracketUID,
		&m.P1ParticipantID, &m.P2ParticipantID, &m.ScoreP1, &m.ScoreP2,
		&m.WinnerID, &m.IsDraw, &m.Status,
		&m.NextMatchID, &m.WinnerToSlot, &m.LoserNextMatchID, &m.LoserToSlot,
		&m.MatchTime,
	)
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, matches []*models.Match) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin match batch transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO matches (
			tournament_id, round, order_in_round, side, bracket_uid,
			p1_participant_id, p2_participant_id, status, match_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	for _, m := range matches {
		err := tx.QueryRowContext(ctx, query,
			m.TournamentID, m.Round, m.OrderInRound, m.Side, m.BracketUID,
			m.P1ParticipantID, m.P2ParticipantID, m.Status, m.MatchTime,
		).Scan(&m.ID)
		if err != nil {
			return r.handleMatchError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit match batch: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) UpdateLinks(ctx context.Context, exec SQLExecutor, id int, nextMatchID, winnerToSlot, loserNextMatchID, loserToSlot *int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE matches SET
			next_match_id = $1, winner_to_slot = $2,
			loser_next_match_id = $3, loser_to_slot = $4
		WHERE id = $5`,
		nextMatchID, winnerToSlot, loserNextMatchID, loserToSlot, id)
	if err != nil {
		return fmt.Errorf("failed to update match links for %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m := &models.Match{}
	err := scanMatch(r.db.QueryRowContext(ctx,
		`SELECT`+matchColumns+` FROM matches WHERE id = $1`, id), m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, filter ListMatchesFilter) ([]*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE tournament_id = $1`
	args := []interface{}{tournamentID}
	argID := 2

	if filter.Round != nil {
		query += fmt.Sprintf(" AND round = $%d", argID)
		args = append(args, *filter.Round)
		argID++
	}
	if filter.Side != nil {
		query += fmt.Sprintf(" AND side = $%d", argID)
		args = append(args, *filter.Side)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
	}
	query += ` ORDER BY side ASC, round ASC, order_in_round ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var m models.Match
		if err := scanMatch(rows, &m); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) TransitionStatus(ctx context.Context, id int, from, to models.MatchStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE matches SET status = $1 WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to transition match %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchStateConflict)
}

func (r *postgresMatchRepository) Complete(ctx context.Context, id int, scoreP1, scoreP2 int, winnerID *int, isDraw bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE matches SET
			score_p1 = $1, score_p2 = $2,
			winner_participant_id = $3, is_draw = $4, status = $5
		WHERE id = $6 AND status = $7`,
		scoreP1, scoreP2, winnerID, isDraw, models.MatchCompleted, id, models.MatchInProgress)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchStateConflict)
}

func (r *postgresMatchRepository) FillSlot(ctx context.Context, id int, slot int, participantID int) error {
	var query string
	switch slot {
	case 1:
		query = `UPDATE matches SET p1_participant_id = $1 WHERE id = $2 AND p1_participant_id IS NULL`
	case 2:
		query = `UPDATE matches SET p2_participant_id = $1 WHERE id = $2 AND p2_participant_id IS NULL`
	default:
		return fmt.Errorf("invalid slot %d", slot)
	}

	result, err := r.db.ExecContext(ctx, query, participantID, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchSlotOccupied)
}

func (r *postgresMatchRepository) ScheduleIfReady(ctx context.Context, id int) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE matches SET status = $1
		WHERE id = $2 AND status = $3
		  AND p1_participant_id IS NOT NULL AND p2_participant_id IS NOT NULL`,
		models.MatchScheduled, id, models.MatchPending)
	if err != nil {
		return false, fmt.Errorf("failed to schedule match %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return affected > 0, nil
}

func (r *postgresMatchRepository) SetParticipants(ctx context.Context, id int, p1ParticipantID, p2ParticipantID *int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE matches SET p1_participant_id = $1, p2_participant_id = $2 WHERE id = $3`,
		p1ParticipantID, p2ParticipantID, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) CancelUnresolvedByTournament(ctx context.Context, tournamentID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE matches SET status = $1 WHERE tournament_id = $2 AND status IN ($3, $4, $5)`,
		models.MatchCanceled, tournamentID,
		models.MatchPending, models.MatchScheduled, models.MatchInProgress)
	if err != nil {
		return fmt.Errorf("failed to cancel unresolved matches for tournament %d: %w", tournamentID, err)
	}
	return nil
}

func (r *postgresMatchRepository) CountUnresolvedByTournament(ctx context.Context, tournamentID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM matches WHERE tournament_id = $1 AND status IN ($2, $3, $4)`,
		tournamentID, models.MatchPending, models.MatchScheduled, models.MatchInProgress).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unresolved matches: %w", err)
	}
	return count, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Code == "23503" { // foreign_key_violation
			return ErrMatchParticipantInvalid
		}
	}
	return fmt.Errorf("match repository error: %w", err)
}
