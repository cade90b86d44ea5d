package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tupilaqs/models"

	"github.com/google/uuid"
)

const questionColumns = `q.id, q.ident, q.txt, q.title, q.expl, q.answer, q.difficulty, q.votes, q.submitted_by, q.created_at`

func scanQuestion(row interface{ Scan(...any) error }) (*models.Question, error) {
	var (
		q           models.Question
		submittedBy sql.NullString
	)
	err := row.Scan(&q.ID, &q.Ident, &q.Txt, &q.Title, &q.Expl, &q.Answer,
		&q.Difficulty, &q.Votes, &submittedBy, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	q.SubmittedBy = submittedBy.String
	return &q, nil
}

func (s *Store) queryQuestions(ctx context.Context, query string, args ...any) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// InsertQuestion stores a question under a fresh time-based UUID.
func (s *Store) InsertQuestion(ctx context.Context, nq models.NewQuestion) (*models.Question, error) {
	ident, err := uuid.NewUUID()
	if err != nil {
		return nil, fmt.Errorf("generate question ident: %w", err)
	}

	var submittedBy sql.NullString
	if nq.SubmittedBy != "" {
		submittedBy = sql.NullString{String: nq.SubmittedBy, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO questions (ident, txt, title, expl, answer, difficulty, votes, submitted_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`),
		ident.String(), nq.Txt, nq.Title, nq.Expl, nq.Answer, nq.Difficulty, nq.Votes, submittedBy)
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	return s.GetQuestion(ctx, ident.String())
}

func (s *Store) GetQuestion(ctx context.Context, ident string) (*models.Question, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+questionColumns+` FROM questions q WHERE q.ident = $1`), ident)
	return scanQuestion(row)
}

func (s *Store) ListQuestions(ctx context.Context, limit int) ([]models.Question, error) {
	return s.queryQuestions(ctx, `SELECT `+questionColumns+` FROM questions q ORDER BY q.id LIMIT $1`, limit)
}

func (s *Store) CountQuestions(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n)
	return n, err
}

// QuestionByVotes returns the most voted question, or the least voted one
// when desc is false.
func (s *Store) QuestionByVotes(ctx context.Context, desc bool) (*models.Question, error) {
	order := "DESC"
	if !desc {
		order = "ASC"
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM questions q ORDER BY q.votes `+order+`, q.id LIMIT 1`)
	return scanQuestion(row)
}

func (s *Store) RandomQuestion(ctx context.Context) (*models.Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions q ORDER BY RANDOM() LIMIT 1`)
	q, err := scanQuestion(row)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoQuestions
	}
	return q, err
}

// NextQuestionForUser returns the oldest question the user has not answered,
// whether they got it right or wrong.
func (s *Store) NextQuestionForUser(ctx context.Context, userIdent string) (*models.Question, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT `+questionColumns+`
		FROM questions q
		WHERE NOT EXISTS (
			SELECT 1 FROM user_answers a
			WHERE a.user_ident = $1 AND a.question_ident = q.ident
		)
		ORDER BY q.id
		LIMIT 1`), userIdent)
	q, err := scanQuestion(row)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoQuestions
	}
	return q, err
}

// UpdateQuestion changes only the fields set in u.
func (s *Store) UpdateQuestion(ctx context.Context, ident string, u models.QuestionUpdate) error {
	if u.Empty() {
		return ErrEmptyUpdate
	}

	var sets []string
	var args []any
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if u.Txt != nil {
		add("txt", *u.Txt)
	}
	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Expl != nil {
		add("expl", *u.Expl)
	}
	if u.Answer != nil {
		add("answer", *u.Answer)
	}
	if u.Difficulty != nil {
		add("difficulty", *u.Difficulty)
	}
	if u.Votes != nil {
		add("votes", *u.Votes)
	}
	args = append(args, ident)

	query := fmt.Sprintf("UPDATE questions SET %s WHERE ident = $%d", strings.Join(sets, ", "), len(args))
	res, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return expectRow(res)
}

// DeleteQuestion removes a question together with its answers and votes.
func (s *Store) DeleteQuestion(ctx context.Context, ident string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM questions WHERE ident = $1`), ident)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return expectRow(res)
}

// SubmittedQuestions lists the questions a user added, oldest first.
func (s *Store) SubmittedQuestions(ctx context.Context, userIdent string) ([]models.Question, error) {
	return s.queryQuestions(ctx,
		`SELECT `+questionColumns+` FROM questions q WHERE q.submitted_by = $1 ORDER BY q.id`, userIdent)
}

// SubmittedVotes is the vote total over every question the user added.
func (s *Store) SubmittedVotes(ctx context.Context, userIdent string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, s.q(`
		SELECT COALESCE(SUM(votes), 0) FROM questions WHERE submitted_by = $1`), userIdent).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum submitted votes: %w", err)
	}
	return total, nil
}
