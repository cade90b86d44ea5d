package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// RecordAnswer stores the user's first answer to a question. It reports false
// when the user had already answered it; that earlier answer is kept.
func (s *Store) RecordAnswer(ctx context.Context, userIdent, questionIdent string, correct bool) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO user_answers (user_ident, question_ident, correct)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`),
		userIdent, questionIdent, correct)
	if err != nil {
		return false, fmt.Errorf("record answer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// AnswerCounts returns how many questions the user got right and wrong.
func (s *Store) AnswerCounts(ctx context.Context, userIdent string) (correct, incorrect int, err error) {
	var total int
	err = s.db.QueryRowContext(ctx, s.q(`
		SELECT COALESCE(SUM(CASE WHEN correct THEN 1 ELSE 0 END), 0), COUNT(*)
		FROM user_answers
		WHERE user_ident = $1`), userIdent).Scan(&correct, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("count answers: %w", err)
	}
	return correct, total - correct, nil
}

// AddVote upvotes a question once per user. It returns whether the vote was
// new and the question's tally afterwards.
func (s *Store) AddVote(ctx context.Context, userIdent, questionIdent string) (bool, int, error) {
	return s.changeVote(ctx, userIdent, questionIdent,
		`INSERT INTO question_votes (user_ident, question_ident) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		`UPDATE questions SET votes = votes + 1 WHERE ident = $1`)
}

// RemoveVote takes back an earlier upvote.
func (s *Store) RemoveVote(ctx context.Context, userIdent, questionIdent string) (bool, int, error) {
	return s.changeVote(ctx, userIdent, questionIdent,
		`DELETE FROM question_votes WHERE user_ident = $1 AND question_ident = $2`,
		`UPDATE questions SET votes = votes - 1 WHERE ident = $1`)
}

func (s *Store) changeVote(ctx context.Context, userIdent, questionIdent, voteStmt, tallyStmt string) (bool, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("begin vote: %w", err)
	}
	defer tx.Rollback()

	var votes int
	err = tx.QueryRowContext(ctx, s.q(`SELECT votes FROM questions WHERE ident = $1`), questionIdent).Scan(&votes)
	if errors.Is(err, sql.ErrNoRows) {
		return false, 0, ErrNotFound
	}
	if err != nil {
		return false, 0, fmt.Errorf("read votes: %w", err)
	}

	res, err := tx.ExecContext(ctx, s.q(voteStmt), userIdent, questionIdent)
	if err != nil {
		return false, 0, fmt.Errorf("record vote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, 0, err
	}
	if n == 0 {
		return false, votes, nil
	}

	if _, err := tx.ExecContext(ctx, s.q(tallyStmt), questionIdent); err != nil {
		return false, 0, fmt.Errorf("update tally: %w", err)
	}
	if err := tx.QueryRowContext(ctx, s.q(`SELECT votes FROM questions WHERE ident = $1`), questionIdent).Scan(&votes); err != nil {
		return false, 0, fmt.Errorf("read votes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, 0, fmt.Errorf("commit vote: %w", err)
	}
	return true, votes, nil
}
