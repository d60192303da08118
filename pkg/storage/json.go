package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/navarrastar/portfolio/pkg/models"
)

// JSONStore keeps all contacts in a single JSON array on disk.
type JSONStore struct {
	mu   sync.Mutex
	path string
	opts options
}

var _ Store = (*JSONStore)(nil)

// NewJSONStore creates the data directory and an empty array file if needed.
func NewJSONStore(path string, opts ...Option) (*JSONStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating data directory: %w", err)
		}
	}

	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			return nil, fmt.Errorf("error creating contacts file: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("error checking contacts file: %w", err)
	}

	return &JSONStore{path: path, opts: buildOptions(opts)}, nil
}

// read loads the file. A missing or empty file reads as no contacts; an
// unparsable one is an error so it is never overwritten.
func (s *JSONStore) read() ([]models.Contact, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading contacts file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var contacts []models.Contact
	if err := json.Unmarshal(data, &contacts); err != nil {
		return nil, fmt.Errorf("error parsing contacts file: %w", err)
	}

	return contacts, nil
}

func (s *JSONStore) write(contacts []models.Contact) error {
	data, err := json.MarshalIndent(contacts, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding contacts: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("error writing contacts: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("error replacing contacts file: %w", err)
	}

	return nil
}

func (s *JSONStore) CreateContact(ctx context.Context, in models.ContactInput) (models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return models.Contact{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	contacts, err := s.read()
	if err != nil {
		return models.Contact{}, err
	}

	contact := models.NewContact(s.opts.newID(), in, s.opts.clock().UTC())
	if err := s.write(append(contacts, contact)); err != nil {
		return models.Contact{}, err
	}

	return contact, nil
}

func (s *JSONStore) ListContacts(ctx context.Context) ([]models.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	contacts, err := s.read()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	slices.Reverse(contacts)
	slices.SortStableFunc(contacts, func(a, b models.Contact) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if contacts == nil {
		contacts = []models.Contact{}
	}

	return contacts, nil
}

func (s *JSONStore) Close() error { return nil }
