package db

var dropOrder = []string{"question_votes", "user_answers", "questions", "users"}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		ident VARCHAR(100) NOT NULL UNIQUE,
		user_name VARCHAR(30) NOT NULL UNIQUE,
		password VARCHAR(100) NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id SERIAL PRIMARY KEY,
		ident VARCHAR(100) NOT NULL UNIQUE,
		txt TEXT NOT NULL,
		title VARCHAR(100) NOT NULL,
		expl TEXT NOT NULL,
		answer VARCHAR(10) NOT NULL,
		difficulty SMALLINT NOT NULL DEFAULT 0,
		votes INTEGER NOT NULL DEFAULT 0,
		submitted_by VARCHAR(100) REFERENCES users(ident) ON DELETE SET NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS user_answers (
		user_ident VARCHAR(100) NOT NULL REFERENCES users(ident) ON DELETE CASCADE,
		question_ident VARCHAR(100) NOT NULL REFERENCES questions(ident) ON DELETE CASCADE,
		correct BOOLEAN NOT NULL,
		answered_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_ident, question_ident)
	)`,
	`CREATE TABLE IF NOT EXISTS question_votes (
		user_ident VARCHAR(100) NOT NULL REFERENCES users(ident) ON DELETE CASCADE,
		question_ident VARCHAR(100) NOT NULL REFERENCES questions(ident) ON DELETE CASCADE,
		voted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_ident, question_ident)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_submitted_by ON questions(submitted_by)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ident TEXT NOT NULL UNIQUE,
		user_name TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ident TEXT NOT NULL UNIQUE,
		txt TEXT NOT NULL,
		title TEXT NOT NULL,
		expl TEXT NOT NULL,
		answer TEXT NOT NULL,
		difficulty INTEGER NOT NULL DEFAULT 0,
		votes INTEGER NOT NULL DEFAULT 0,
		submitted_by TEXT REFERENCES users(ident) ON DELETE SET NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS user_answers (
		user_ident TEXT NOT NULL REFERENCES users(ident) ON DELETE CASCADE,
		question_ident TEXT NOT NULL REFERENCES questions(ident) ON DELETE CASCADE,
		correct BOOLEAN NOT NULL,
		answered_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_ident, question_ident)
	)`,
	`CREATE TABLE IF NOT EXISTS question_votes (
		user_ident TEXT NOT NULL REFERENCES users(ident) ON DELETE CASCADE,
		question_ident TEXT NOT NULL REFERENCES questions(ident) ON DELETE CASCADE,
		voted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_ident, question_ident)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_submitted_by ON questions(submitted_by)`,
}
