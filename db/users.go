package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tupilaqs/models"

	"github.com/google/uuid"
)

const userColumns = `id, ident, user_name, password, is_admin, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Ident, &u.UserName, &u.Password, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AddUser stores a new user. passwordHash must already be hashed.
func (s *Store) AddUser(ctx context.Context, userName, passwordHash string, isAdmin bool) (*models.User, error) {
	ident, err := uuid.NewUUID()
	if err != nil {
		return nil, fmt.Errorf("generate user ident: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.q(`
		INSERT INTO users (ident, user_name, password, is_admin)
		VALUES ($1, $2, $3, $4)`),
		ident.String(), userName, passwordHash, isAdmin)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %q: %w", userName, ErrDuplicate)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetUserByIdent(ctx, ident.String())
}

func (s *Store) GetUserByName(ctx context.Context, userName string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+userColumns+` FROM users WHERE user_name = $1`), userName)
	return scanUser(row)
}

func (s *Store) GetUserByIdent(ctx context.Context, ident string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+userColumns+` FROM users WHERE ident = $1`), ident)
	return scanUser(row)
}

// ListUsers returns every user, oldest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) SetPassword(ctx context.Context, ident, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE users SET password = $1 WHERE ident = $2`), passwordHash, ident)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return expectRow(res)
}

// RenameUser changes a user's name. Taken names map to ErrDuplicate.
func (s *Store) RenameUser(ctx context.Context, ident, userName string) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE users SET user_name = $1 WHERE ident = $2`), userName, ident)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %q: %w", userName, ErrDuplicate)
		}
		return fmt.Errorf("rename user: %w", err)
	}
	return expectRow(res)
}

func (s *Store) SetAdmin(ctx context.Context, userName string, isAdmin bool) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE users SET is_admin = $1 WHERE user_name = $2`), isAdmin, userName)
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	return expectRow(res)
}

// DeleteUser removes a user along with their answers and votes. Questions
// they submitted stay, without a submitter.
func (s *Store) DeleteUser(ctx context.Context, ident string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM users WHERE ident = $1`), ident)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
