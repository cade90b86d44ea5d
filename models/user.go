package models

import "time"

type User struct {
	ID        int       `json:"id"`
	Ident     string    `json:"ident"`
	UserName  string    `json:"user_name"`
	Password  string    `json:"-"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

type UserInfo struct {
	UserScore                   string `json:"user_score"`
	UserSubmittedQuestionsCount int    `json:"user_submitted_questions_count"`
	UserSubmittedQuestionsVotes int    `json:"user_submitted_questions_votes"`
}

type AuthData struct {
	Token    string `json:"token"`
	UserName string `json:"user_name"`
}
