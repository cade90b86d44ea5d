package models

import "time"

const (
	AnswerBug     = "Bug"
	AnswerFeature = "Feature"
)

// ExhaustedIdent marks the placeholder served when a user has answered everything.
const ExhaustedIdent = "INVALID"

type Question struct {
	ID          int       `json:"id"`
	Ident       string    `json:"ident"`
	Txt         string    `json:"txt"`
	Title       string    `json:"title"`
	Expl        string    `json:"expl"`
	Answer      string    `json:"answer"`
	Difficulty  int       `json:"difficulty"`
	Votes       int       `json:"votes"`
	SubmittedBy string    `json:"submitted_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PublicQuestion is what a player sees; the answer and explanation stay on the server.
type PublicQuestion struct {
	Ident      string `json:"ident"`
	Title      string `json:"title"`
	Txt        string `json:"txt"`
	Difficulty int    `json:"difficulty"`
	Votes      int    `json:"votes"`
}

func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		Ident:      q.Ident,
		Title:      q.Title,
		Txt:        q.Txt,
		Difficulty: q.Difficulty,
		Votes:      q.Votes,
	}
}

type NewQuestion struct {
	Txt         string
	Title       string
	Expl        string
	Answer      string
	Difficulty  int
	Votes       int
	SubmittedBy string
}

// QuestionUpdate carries the fields an admin wants changed; nil means keep.
type QuestionUpdate struct {
	Txt        *string `json:"txt"`
	Title      *string `json:"title"`
	Expl       *string `json:"expl"`
	Answer     *string `json:"answer"`
	Difficulty *int    `json:"difficulty"`
	Votes      *int    `json:"votes"`
}

func (u QuestionUpdate) Empty() bool {
	return u.Txt == nil && u.Title == nil && u.Expl == nil &&
		u.Answer == nil && u.Difficulty == nil && u.Votes == nil
}

type VoteResult struct {
	Ident string `json:"ident"`
	Votes int    `json:"votes"`
}
