package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"unicode/utf8"

	"tupilaqs/auth"
	"tupilaqs/db"
	"tupilaqs/models"
	"tupilaqs/problems"
)

const (
	maxUserNameLen = 30
	maxTitleLen    = 100
	maxDifficulty  = 5

	VoteAdd    = "add"
	VoteRemove = "remove"

	// WrongPasswordMessage is what a player sees after ErrWrongPassword.
	WrongPasswordMessage = "Wrong password, try again."
)

var (
	ErrWrongPassword    = errors.New("wrong password")
	ErrQuestionNotFound = errors.New("could not find question")
	ErrInvalidInput     = errors.New("invalid input")
	ErrLoginRequired    = errors.New("log in with a user name and password first")
	ErrUserNameTaken    = errors.New("user name is already taken")
	ErrUserNotFound     = errors.New("could not find user")
)

// Store is the slice of the database the quiz needs.
type Store interface {
	AddUser(ctx context.Context, userName, passwordHash string, isAdmin bool) (*models.User, error)
	GetUserByName(ctx context.Context, userName string) (*models.User, error)
	GetUserByIdent(ctx context.Context, ident string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetPassword(ctx context.Context, ident, passwordHash string) error
	RenameUser(ctx context.Context, ident, userName string) error
	SetAdmin(ctx context.Context, userName string, isAdmin bool) error
	DeleteUser(ctx context.Context, ident string) error

	InsertQuestion(ctx context.Context, nq models.NewQuestion) (*models.Question, error)
	GetQuestion(ctx context.Context, ident string) (*models.Question, error)
	ListQuestions(ctx context.Context, limit int) ([]models.Question, error)
	CountQuestions(ctx context.Context) (int, error)
	QuestionByVotes(ctx context.Context, desc bool) (*models.Question, error)
	RandomQuestion(ctx context.Context) (*models.Question, error)
	NextQuestionForUser(ctx context.Context, userIdent string) (*models.Question, error)
	UpdateQuestion(ctx context.Context, ident string, u models.QuestionUpdate) error
	DeleteQuestion(ctx context.Context, ident string) error

	RecordAnswer(ctx context.Context, userIdent, questionIdent string, correct bool) (bool, error)
	AnswerCounts(ctx context.Context, userIdent string) (correct, incorrect int, err error)
	SubmittedQuestions(ctx context.Context, userIdent string) ([]models.Question, error)
	SubmittedVotes(ctx context.Context, userIdent string) (int, error)
	AddVote(ctx context.Context, userIdent, questionIdent string) (bool, int, error)
	RemoveVote(ctx context.Context, userIdent, questionIdent string) (bool, int, error)
}

type QuizService struct {
	store  Store
	admins map[string]bool
}

func NewQuizService(store Store, adminUsers []string) *QuizService {
	admins := make(map[string]bool, len(adminUsers))
	for _, name := range adminUsers {
		admins[name] = true
	}
	return &QuizService{store: store, admins: admins}
}

// ExhaustedQuestion is served once a user has answered every question.
func ExhaustedQuestion() models.PublicQuestion {
	return models.PublicQuestion{
		Ident: models.ExhaustedIdent,
		Title: "You have answered all questions, add more to the database!",
	}
}

// GetOrCreateUser logs a user in, registering the name on first use.
func (s *QuizService) GetOrCreateUser(ctx context.Context, userName, password string) (*models.User, error) {
	userName, err := validUserName(userName)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	u, err := s.store.GetUserByName(ctx, userName)
	if err == nil {
		if !auth.CheckPassword(u.Password, password) {
			return nil, ErrWrongPassword
		}
		return u, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("look up user: %w", err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err = s.store.AddUser(ctx, userName, hashed, s.admins[userName])
	if errors.Is(err, db.ErrDuplicate) {
		// Someone registered the same name in the meantime.
		return s.GetOrCreateUser(ctx, userName, password)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("registered user %s (%s)", u.UserName, u.Ident)
	return u, nil
}

func (s *QuizService) GetUserByIdent(ctx context.Context, ident string) (*models.User, error) {
	return s.store.GetUserByIdent(ctx, ident)
}

// ChangePassword replaces the password after checking the current one.
func (s *QuizService) ChangePassword(ctx context.Context, ident, current, next string) error {
	if next == "" {
		return fmt.Errorf("%w: new password is required", ErrInvalidInput)
	}
	u, err := s.user(ctx, ident)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.Password, current) {
		return ErrWrongPassword
	}

	hashed, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.SetPassword(ctx, ident, hashed); err != nil {
		return err
	}
	log.Printf("user %s changed their password", ident)
	return nil
}

// RenameUser changes the name a user logs in with.
func (s *QuizService) RenameUser(ctx context.Context, ident, userName string) (*models.User, error) {
	userName, err := validUserName(userName)
	if err != nil {
		return nil, err
	}
	err = s.store.RenameUser(ctx, ident, userName)
	if errors.Is(err, db.ErrDuplicate) {
		return nil, ErrUserNameTaken
	}
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.store.GetUserByIdent(ctx, ident)
}

func (s *QuizService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

// SetAdmin grants or revokes admin rights.
func (s *QuizService) SetAdmin(ctx context.Context, ident string, isAdmin bool) (*models.User, error) {
	u, err := s.user(ctx, ident)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetAdmin(ctx, u.UserName, isAdmin); err != nil {
		return nil, err
	}
	u.IsAdmin = isAdmin
	log.Printf("user %s admin=%t", u.UserName, isAdmin)
	return u, nil
}

func (s *QuizService) user(ctx context.Context, ident string) (*models.User, error) {
	u, err := s.store.GetUserByIdent(ctx, ident)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// PromoteAdmins flags the configured admin names that already exist.
func (s *QuizService) PromoteAdmins(ctx context.Context) error {
	for name := range s.admins {
		err := s.store.SetAdmin(ctx, name, true)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("promote %s: %w", name, err)
		}
	}
	return nil
}

// ServeQuestion picks the next question for a user. Anonymous players get a
// random one.
func (s *QuizService) ServeQuestion(ctx context.Context, userIdent string) (models.PublicQuestion, error) {
	var (
		q   *models.Question
		err error
	)
	if userIdent == "" {
		q, err = s.store.RandomQuestion(ctx)
	} else {
		q, err = s.store.NextQuestionForUser(ctx, userIdent)
	}
	if errors.Is(err, db.ErrNoQuestions) {
		return ExhaustedQuestion(), nil
	}
	if err != nil {
		return models.PublicQuestion{}, fmt.Errorf("serve question: %w", err)
	}
	return q.Public(), nil
}

// Answer checks a guess and returns the feedback shown to the player.
func (s *QuizService) Answer(ctx context.Context, userIdent, questionIdent, userAnswer string) (string, error) {
	if userIdent == "" {
		return "", ErrLoginRequired
	}
	guess, err := normalizeAnswer(userAnswer)
	if err != nil {
		return "", err
	}

	q, err := s.store.GetQuestion(ctx, questionIdent)
	if errors.Is(err, db.ErrNotFound) {
		return "", fmt.Errorf("%w %q", ErrQuestionNotFound, questionIdent)
	}
	if err != nil {
		return "", fmt.Errorf("load question: %w", err)
	}

	correct := strings.EqualFold(guess, q.Answer)
	if _, err := s.store.RecordAnswer(ctx, userIdent, q.Ident, correct); err != nil {
		return "", err
	}

	feedback := "Correct!"
	if !correct {
		feedback = fmt.Sprintf("Sorry, this was a %q.", q.Answer)
	}
	return feedback + "\n" + q.Expl, nil
}

// InsertQuestion stores a player-submitted question and credits it to them.
func (s *QuizService) InsertQuestion(ctx context.Context, userIdent string, req models.Request) (string, error) {
	if userIdent == "" {
		return "", ErrLoginRequired
	}
	nq, err := validateNewQuestion(req)
	if err != nil {
		return "", err
	}
	nq.SubmittedBy = userIdent

	q, err := s.store.InsertQuestion(ctx, nq)
	if err != nil {
		return "", err
	}
	log.Printf("inserted question %s %q by user %s", q.Ident, q.Title, userIdent)
	return fmt.Sprintf("Added `%s` to the database with UUID %s.", q.Title, q.Ident), nil
}

func (s *QuizService) Vote(ctx context.Context, userIdent, questionIdent, vote string) (models.VoteResult, error) {
	if userIdent == "" {
		return models.VoteResult{}, ErrLoginRequired
	}

	var (
		votes int
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(vote)) {
	case VoteAdd:
		_, votes, err = s.store.AddVote(ctx, userIdent, questionIdent)
	case VoteRemove:
		_, votes, err = s.store.RemoveVote(ctx, userIdent, questionIdent)
	default:
		return models.VoteResult{}, fmt.Errorf("%w: unknown vote %q", ErrInvalidInput, vote)
	}
	if errors.Is(err, db.ErrNotFound) {
		return models.VoteResult{}, fmt.Errorf("%w %q", ErrQuestionNotFound, questionIdent)
	}
	if err != nil {
		return models.VoteResult{}, err
	}
	return models.VoteResult{Ident: questionIdent, Votes: votes}, nil
}

func (s *QuizService) UserInfo(ctx context.Context, userIdent string) (models.UserInfo, error) {
	correct, incorrect, err := s.store.AnswerCounts(ctx, userIdent)
	if err != nil {
		return models.UserInfo{}, err
	}
	submitted, err := s.store.SubmittedQuestions(ctx, userIdent)
	if err != nil {
		return models.UserInfo{}, err
	}
	votes, err := s.store.SubmittedVotes(ctx, userIdent)
	if err != nil {
		return models.UserInfo{}, err
	}

	return models.UserInfo{
		UserScore:                   FormatScore(correct, correct+incorrect),
		UserSubmittedQuestionsCount: len(submitted),
		UserSubmittedQuestionsVotes: votes,
	}, nil
}

// FormatScore renders "correct/total = pct%" with three significant digits,
// or "0" before the first answer.
func FormatScore(correct, total int) string {
	if total == 0 {
		return "0"
	}
	pct := 100 * float64(correct) / float64(total)
	return fmt.Sprintf("%d/%d = %s%%", correct, total, strconv.FormatFloat(pct, 'g', 3, 64))
}

func (s *QuizService) ListQuestions(ctx context.Context, limit int) ([]models.PublicQuestion, error) {
	questions, err := s.store.ListQuestions(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.PublicQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.Public())
	}
	return out, nil
}

func (s *QuizService) TopQuestion(ctx context.Context, desc bool) (models.PublicQuestion, error) {
	q, err := s.store.QuestionByVotes(ctx, desc)
	if errors.Is(err, db.ErrNotFound) {
		return models.PublicQuestion{}, ErrQuestionNotFound
	}
	if err != nil {
		return models.PublicQuestion{}, err
	}
	return q.Public(), nil
}

// Explanation returns the Markdown explanation of a question.
func (s *QuizService) Explanation(ctx context.Context, questionIdent string) (string, error) {
	q, err := s.store.GetQuestion(ctx, questionIdent)
	if errors.Is(err, db.ErrNotFound) {
		return "", ErrQuestionNotFound
	}
	if err != nil {
		return "", err
	}
	return q.Expl, nil
}

func (s *QuizService) UpdateQuestion(ctx context.Context, ident string, u models.QuestionUpdate) error {
	if u.Answer != nil {
		answer, err := normalizeAnswer(*u.Answer)
		if err != nil {
			return err
		}
		u.Answer = &answer
	}
	if u.Title != nil && (strings.TrimSpace(*u.Title) == "" || utf8.RuneCountInString(*u.Title) > maxTitleLen) {
		return fmt.Errorf("%w: title must be 1 to %d characters", ErrInvalidInput, maxTitleLen)
	}
	if u.Difficulty != nil && (*u.Difficulty < 0 || *u.Difficulty > maxDifficulty) {
		return fmt.Errorf("%w: difficulty must be between 0 and %d", ErrInvalidInput, maxDifficulty)
	}

	err := s.store.UpdateQuestion(ctx, ident, u)
	if errors.Is(err, db.ErrNotFound) {
		return ErrQuestionNotFound
	}
	if errors.Is(err, db.ErrEmptyUpdate) {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	return err
}

func (s *QuizService) DeleteQuestion(ctx context.Context, ident string) error {
	err := s.store.DeleteQuestion(ctx, ident)
	if errors.Is(err, db.ErrNotFound) {
		return ErrQuestionNotFound
	}
	return err
}

func (s *QuizService) DeleteUser(ctx context.Context, ident string) error {
	err := s.store.DeleteUser(ctx, ident)
	if errors.Is(err, db.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// SeedOfficial loads the built-in questions into an empty store and reports
// how many were added.
func (s *QuizService) SeedOfficial(ctx context.Context) (int, error) {
	n, err := s.store.CountQuestions(ctx)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	official, err := problems.Official()
	if err != nil {
		return 0, err
	}
	for _, nq := range official {
		if _, err := s.store.InsertQuestion(ctx, nq); err != nil {
			return 0, fmt.Errorf("seed %q: %w", nq.Title, err)
		}
	}
	return len(official), nil
}

func validUserName(userName string) (string, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" || utf8.RuneCountInString(userName) > maxUserNameLen {
		return "", fmt.Errorf("%w: user name must be 1 to %d characters", ErrInvalidInput, maxUserNameLen)
	}
	return userName, nil
}

func normalizeAnswer(answer string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "bug":
		return models.AnswerBug, nil
	case "feature":
		return models.AnswerFeature, nil
	}
	return "", fmt.Errorf("%w: answer must be \"bug\" or \"feature\", got %q", ErrInvalidInput, answer)
}

func validateNewQuestion(req models.Request) (models.NewQuestion, error) {
	answer, err := normalizeAnswer(req.CorrectAnswer)
	if err != nil {
		return models.NewQuestion{}, err
	}
	title := strings.TrimSpace(req.NewQuestionTitle)
	if title == "" || utf8.RuneCountInString(title) > maxTitleLen {
		return models.NewQuestion{}, fmt.Errorf("%w: title must be 1 to %d characters", ErrInvalidInput, maxTitleLen)
	}
	if strings.TrimSpace(req.Question) == "" {
		return models.NewQuestion{}, fmt.Errorf("%w: question text is required", ErrInvalidInput)
	}
	if req.Difficulty < 0 || req.Difficulty > maxDifficulty {
		return models.NewQuestion{}, fmt.Errorf("%w: difficulty must be between 0 and %d", ErrInvalidInput, maxDifficulty)
	}

	return models.NewQuestion{
		Txt:        req.Question,
		Title:      title,
		Expl:       strings.TrimSpace(req.NewQuestionExplanation),
		Answer:     answer,
		Difficulty: req.Difficulty,
	}, nil
}
