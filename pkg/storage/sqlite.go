package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/navarrastar/portfolio/pkg/models"
)

// createdLayout sorts lexically in time order for UTC times.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

const createContactsTable = `
CREATE TABLE IF NOT EXISTS contacts (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	email TEXT NOT NULL,
	subject TEXT NOT NULL,
	message TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

// SQLiteStore keeps contacts in a local SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	opts options
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens path and creates the contacts table.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("error creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// ":memory:" databases exist per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createContactsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error creating contacts table: %w", err)
	}

	return &SQLiteStore{db: db, opts: buildOptions(opts)}, nil
}

func (s *SQLiteStore) CreateContact(ctx context.Context, in models.ContactInput) (models.Contact, error) {
	contact := models.NewContact(s.opts.newID(), in, s.opts.clock().UTC())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts (id, first_name, last_name, email, subject, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		contact.ID, contact.FirstName, contact.LastName, contact.Email,
		contact.Subject, contact.Message, contact.CreatedAt.Format(createdLayout),
	)
	if err != nil {
		return models.Contact{}, fmt.Errorf("error inserting contact: %w", err)
	}

	return contact, nil
}

func (s *SQLiteStore) ListContacts(ctx context.Context) ([]models.Contact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, email, subject, message, created_at
		FROM contacts
		ORDER BY created_at DESC, seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("error querying contacts: %w", err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		var (
			c       models.Contact
			created string
		)
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Subject, &c.Message, &created); err != nil {
			return nil, fmt.Errorf("error scanning contact: %w", err)
		}
		c.CreatedAt, err = time.Parse(createdLayout, created)
		if err != nil {
			return nil, fmt.Errorf("error parsing createdAt for %s: %w", c.ID, err)
		}
		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
