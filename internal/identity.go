package internal

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"

	_ "modernc.org/sqlite"
)

// Storage keys for persisted identity state.
const (
	keyCustomerID    = "customer_id"
	keyCustomerName  = "customer_name"
	keyCustomerEmail = "customer_email"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether email looks like a deliverable address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Profile is the customer's optional display identity.
type Profile struct {
	Name  string
	Email string
}

// IdentityStore persists the customer id and profile across runs. It owns
// a small key/value table in a local SQLite database and never touches
// the network.
type IdentityStore struct {
	db *sql.DB
}

// OpenIdentityStore opens (creating if necessary) the identity database.
func OpenIdentityStore(path string) (*IdentityStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open identity database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS widget_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create widget_state table: %w", err)
	}

	return &IdentityStore{db: db}, nil
}

// Close closes the underlying database.
func (s *IdentityStore) Close() error {
	return s.db.Close()
}

// GetOrCreateCustomerID returns the stored customer id, generating and
// persisting a fresh one on first use. Idempotent across calls and runs.
func (s *IdentityStore) GetOrCreateCustomerID() (string, error) {
	id, err := s.get(keyCustomerID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	id = NewCustomerID()
	if err := s.set(keyCustomerID, id); err != nil {
		return "", err
	}
	return id, nil
}

// Profile returns the stored profile, or nil when either field is unset.
func (s *IdentityStore) Profile() (*Profile, error) {
	name, err := s.get(keyCustomerName)
	if err != nil {
		return nil, err
	}
	email, err := s.get(keyCustomerEmail)
	if err != nil {
		return nil, err
	}
	if name == "" || email == "" {
		return nil, nil
	}
	return &Profile{Name: name, Email: email}, nil
}

// SetProfile persists the profile synchronously.
func (s *IdentityStore) SetProfile(name, email string) error {
	if err := s.set(keyCustomerName, name); err != nil {
		return err
	}
	return s.set(keyCustomerEmail, email)
}

// ResetIdentity discards the stored id and profile and returns a freshly
// generated id. Used only by the explicit "start new conversation" action.
func (s *IdentityStore) ResetIdentity() (string, error) {
	if _, err := s.db.Exec("DELETE FROM widget_state"); err != nil {
		return "", fmt.Errorf("failed to reset identity: %w", err)
	}
	id := NewCustomerID()
	if err := s.set(keyCustomerID, id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *IdentityStore) get(key string) (string, error) {
	var value sql.NullString
	err := s.db.QueryRow("SELECT value FROM widget_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value.String, nil
}

func (s *IdentityStore) set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO widget_state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// NewCustomerID generates a customer id in the service's expected format:
// customer_<unix-millis>_<random suffix>.
func NewCustomerID() string {
	return fmt.Sprintf("customer_%d_%s", time.Now().UnixMilli(), randomSuffix(9))
}

func randomSuffix(n int) string {
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		// Fall back to a time-derived suffix
		return fmt.Sprintf("%09d", time.Now().UnixNano()%1e9)
	}
	return hex.EncodeToString(b)[:n]
}
