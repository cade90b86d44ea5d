package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tupilaqs/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "quiz.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(s.Close)

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return s
}

func addQuestion(t *testing.T, s *Store, title, submittedBy string) *models.Question {
	t.Helper()
	q, err := s.InsertQuestion(context.Background(), models.NewQuestion{
		Txt:         "print(1)",
		Title:       title,
		Expl:        "**Feature.** It prints one.",
		Answer:      models.AnswerFeature,
		Difficulty:  2,
		SubmittedBy: submittedBy,
	})
	if err != nil {
		t.Fatalf("InsertQuestion(%q): %v", title, err)
	}
	return q
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, err := s.AddUser(ctx, "ada", "hash", false)
	if err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if u.Ident == "" || u.UserName != "ada" || u.IsAdmin {
		t.Fatalf("unexpected user %+v", u)
	}

	if _, err := s.AddUser(ctx, "ada", "other", false); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	byName, err := s.GetUserByName(ctx, "ada")
	if err != nil || byName.Ident != u.Ident || byName.Password != "hash" {
		t.Fatalf("GetUserByName: %+v, %v", byName, err)
	}

	if err := s.SetAdmin(ctx, "ada", true); err != nil {
		t.Fatalf("SetAdmin: %v", err)
	}
	byIdent, _ := s.GetUserByIdent(ctx, u.Ident)
	if !byIdent.IsAdmin {
		t.Fatal("expected ada to be an admin")
	}

	if err := s.SetAdmin(ctx, "nobody", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetUserByName(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQuestionQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.RandomQuestion(ctx); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions on empty table, got %v", err)
	}

	first := addQuestion(t, s, "first", "")
	second := addQuestion(t, s, "second", "")

	if first.Ident == second.Ident {
		t.Fatal("idents must be unique")
	}
	if first.SubmittedBy != "" || first.Votes != 0 {
		t.Fatalf("unexpected defaults %+v", first)
	}

	n, err := s.CountQuestions(ctx)
	if err != nil || n != 2 {
		t.Fatalf("CountQuestions = %d, %v", n, err)
	}

	list, err := s.ListQuestions(ctx, 1)
	if err != nil || len(list) != 1 || list[0].Ident != first.Ident {
		t.Fatalf("ListQuestions(1) = %+v, %v", list, err)
	}

	random, err := s.RandomQuestion(ctx)
	if err != nil {
		t.Fatalf("RandomQuestion: %v", err)
	}
	if random.Ident != first.Ident && random.Ident != second.Ident {
		t.Fatalf("RandomQuestion returned unknown question %s", random.Ident)
	}

	votes := 5
	if err := s.UpdateQuestion(ctx, second.Ident, models.QuestionUpdate{Votes: &votes}); err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}
	top, _ := s.QuestionByVotes(ctx, true)
	if top.Ident != second.Ident {
		t.Fatalf("expected %s on top, got %s", second.Ident, top.Ident)
	}
	bottom, _ := s.QuestionByVotes(ctx, false)
	if bottom.Ident != first.Ident {
		t.Fatalf("expected %s at the bottom, got %s", first.Ident, bottom.Ident)
	}

	if err := s.UpdateQuestion(ctx, first.Ident, models.QuestionUpdate{}); !errors.Is(err, ErrEmptyUpdate) {
		t.Fatalf("expected ErrEmptyUpdate, got %v", err)
	}
	if err := s.UpdateQuestion(ctx, "missing", models.QuestionUpdate{Votes: &votes}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetQuestion(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateQuestionSetsOnlyGivenFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	q := addQuestion(t, s, "before", "")

	title, answer := "after", models.AnswerBug
	if err := s.UpdateQuestion(ctx, q.Ident, models.QuestionUpdate{Title: &title, Answer: &answer}); err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}

	got, _ := s.GetQuestion(ctx, q.Ident)
	if got.Title != "after" || got.Answer != models.AnswerBug {
		t.Fatalf("fields not updated: %+v", got)
	}
	if got.Txt != q.Txt || got.Difficulty != q.Difficulty {
		t.Fatalf("untouched fields changed: %+v", got)
	}
}

func TestAnswersAndNextQuestion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u, _ := s.AddUser(ctx, "ada", "hash", false)
	first := addQuestion(t, s, "first", "")
	second := addQuestion(t, s, "second", "")

	next, err := s.NextQuestionForUser(ctx, u.Ident)
	if err != nil || next.Ident != first.Ident {
		t.Fatalf("expected first question, got %+v, %v", next, err)
	}

	recorded, err := s.RecordAnswer(ctx, u.Ident, first.Ident, false)
	if err != nil || !recorded {
		t.Fatalf("RecordAnswer: %v, %v", recorded, err)
	}
	recorded, err = s.RecordAnswer(ctx, u.Ident, first.Ident, true)
	if err != nil || recorded {
		t.Fatalf("second answer must be ignored: %v, %v", recorded, err)
	}

	next, _ = s.NextQuestionForUser(ctx, u.Ident)
	if next.Ident != second.Ident {
		t.Fatalf("expected second question, got %s", next.Ident)
	}

	if _, err := s.RecordAnswer(ctx, u.Ident, second.Ident, true); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if _, err := s.NextQuestionForUser(ctx, u.Ident); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}

	correct, incorrect, err := s.AnswerCounts(ctx, u.Ident)
	if err != nil || correct != 1 || incorrect != 1 {
		t.Fatalf("AnswerCounts = %d, %d, %v", correct, incorrect, err)
	}
}

func TestVotes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	author, _ := s.AddUser(ctx, "author", "hash", false)
	voter, _ := s.AddUser(ctx, "voter", "hash", false)
	q := addQuestion(t, s, "voted", author.Ident)

	changed, votes, err := s.AddVote(ctx, voter.Ident, q.Ident)
	if err != nil || !changed || votes != 1 {
		t.Fatalf("AddVote = %v, %d, %v", changed, votes, err)
	}
	changed, votes, err = s.AddVote(ctx, voter.Ident, q.Ident)
	if err != nil || changed || votes != 1 {
		t.Fatalf("repeated AddVote = %v, %d, %v", changed, votes, err)
	}

	if _, _, err := s.AddVote(ctx, author.Ident, q.Ident); err != nil {
		t.Fatalf("AddVote: %v", err)
	}
	total, err := s.SubmittedVotes(ctx, author.Ident)
	if err != nil || total != 2 {
		t.Fatalf("SubmittedVotes = %d, %v", total, err)
	}

	changed, votes, err = s.RemoveVote(ctx, voter.Ident, q.Ident)
	if err != nil || !changed || votes != 1 {
		t.Fatalf("RemoveVote = %v, %d, %v", changed, votes, err)
	}
	changed, _, err = s.RemoveVote(ctx, voter.Ident, q.Ident)
	if err != nil || changed {
		t.Fatalf("repeated RemoveVote = %v, %v", changed, err)
	}

	if _, _, err := s.AddVote(ctx, voter.Ident, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	author, _ := s.AddUser(ctx, "author", "hash", false)
	q := addQuestion(t, s, "mine", author.Ident)
	other := addQuestion(t, s, "other", "")

	submitted, err := s.SubmittedQuestions(ctx, author.Ident)
	if err != nil || len(submitted) != 1 || submitted[0].Ident != q.Ident {
		t.Fatalf("SubmittedQuestions = %+v, %v", submitted, err)
	}

	if _, err := s.RecordAnswer(ctx, author.Ident, other.Ident, true); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}

	if err := s.DeleteUser(ctx, author.Ident); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	kept, err := s.GetQuestion(ctx, q.Ident)
	if err != nil || kept.SubmittedBy != "" {
		t.Fatalf("submitted question should survive without submitter: %+v, %v", kept, err)
	}
	correct, incorrect, _ := s.AnswerCounts(ctx, author.Ident)
	if correct+incorrect != 0 {
		t.Fatal("answers of a deleted user must be removed")
	}

	if err := s.DeleteQuestion(ctx, q.Ident); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}
	if err := s.DeleteQuestion(ctx, q.Ident); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResetDropsData(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	addQuestion(t, s, "gone", "")

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	n, _ := s.CountQuestions(ctx)
	if n != 0 {
		t.Fatalf("expected empty table after reset, got %d", n)
	}
}

func TestRebindPlaceholders(t *testing.T) {
	s := &Store{driver: "sqlite3"}
	got := s.q("SELECT 1 WHERE a = $1 AND b = $12")
	if want := "SELECT 1 WHERE a = ?1 AND b = ?12"; got != want {
		t.Fatalf("q() = %q, want %q", got, want)
	}

	pg := &Store{driver: "postgres"}
	if got := pg.q("a = $1"); got != "a = $1" {
		t.Fatalf("postgres query rewritten: %q", got)
	}
}

func TestUserUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ada, _ := s.AddUser(ctx, "ada", "hash", false)
	if _, err := s.AddUser(ctx, "bob", "hash", false); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	users, err := s.ListUsers(ctx)
	if err != nil || len(users) != 2 || users[0].UserName != "ada" || users[1].UserName != "bob" {
		t.Fatalf("ListUsers = %+v, %v", users, err)
	}

	if err := s.SetPassword(ctx, ada.Ident, "new-hash"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if err := s.RenameUser(ctx, ada.Ident, "lovelace"); err != nil {
		t.Fatalf("RenameUser: %v", err)
	}
	got, _ := s.GetUserByIdent(ctx, ada.Ident)
	if got.UserName != "lovelace" || got.Password != "new-hash" {
		t.Fatalf("user not updated: %+v", got)
	}

	if err := s.RenameUser(ctx, ada.Ident, "bob"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := s.RenameUser(ctx, "missing", "carol"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.SetPassword(ctx, "missing", "hash"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
