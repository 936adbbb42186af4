package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"dicom-viewer/internal/logging"
)

// Account roles. Radiologists manage the archive; patients get
// read-only access to their own studies.
const (
	RoleRadiologist = "radiologist"
	RolePatient     = "patient"
)

// ErrInvalidCredentials is returned when a username does not exist or
// the password does not match.
var ErrInvalidCredentials = errors.New("invalid username or password")

// User is a viewer account without its password hash.
type User struct {
	ID       int64
	Username string
	Role     string
}

// CreateUser adds a viewer account with a bcrypt-hashed password.
func (s *Store) CreateUser(ctx context.Context, username, role, password string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_user", start, err) }()

	if username == "" || password == "" {
		err = errors.New("username and password must not be empty")
		return err
	}
	if role != RoleRadiologist && role != RolePatient {
		err = fmt.Errorf("unknown role %q", role)
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (username, role, password_hash) VALUES (?, ?, ?)",
		username, role, string(hash))
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", username, err)
	}

	logging.Info("Created user %s with role %s", username, role)
	return nil
}

// SetPassword replaces the password of an existing account.
func (s *Store) SetPassword(ctx context.Context, username, password string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_password", start, err) }()

	if password == "" {
		err = errors.New("password must not be empty")
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, updated_at = strftime('%s', 'now') WHERE username = ?",
		string(hash), username)
	if err != nil {
		return fmt.Errorf("failed to update password for %s: %w", username, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = fmt.Errorf("user %s does not exist", username)
		return err
	}
	return nil
}

// Authenticate verifies a username/password pair and returns the
// account on success.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*User, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("authenticate", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var u User
	var hash string
	err = s.db.QueryRowContext(ctx,
		"SELECT id, username, role, password_hash FROM users WHERE username = ?",
		username).Scan(&u.ID, &u.Username, &u.Role, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		// Burn a comparison anyway so missing users cost the same as
		// wrong passwords.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B0q1aBnGzF0eJ3lZ9Qxk5nW3mGea"), []byte(password))
		err = ErrInvalidCredentials
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user %s: %w", username, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		err = ErrInvalidCredentials
		return nil, err
	}
	return &u, nil
}

// Users lists the viewer accounts.
func (s *Store) Users(ctx context.Context) ([]User, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("users", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT id, username, role FROM users ORDER BY username")
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var users []User
	for rows.Next() {
		var u User
		if err = rows.Scan(&u.ID, &u.Username, &u.Role); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	err = rows.Err()
	return users, err
}
