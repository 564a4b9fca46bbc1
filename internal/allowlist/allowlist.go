// SPDX-License-Identifier: MIT

// Package allowlist tracks which accounts may trigger pipeline runs.
// Accounts start in the waiting state when first seen and must be
// approved before a run is allowed. The store is a TOML file under
// the configuration directory, rewritten atomically on every change.
package allowlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"forgeci/internal/issue"

	"github.com/pelletier/go-toml/v2"
)

// Status is the approval state of an account.
type Status string

const (
	// StatusWaiting marks an account that requested access but is not approved.
	StatusWaiting Status = "waiting"
	// StatusApproved marks an account allowed to trigger runs.
	StatusApproved Status = "approved"
)

// ErrAccountNotFound is returned when an operation names an unknown account.
var ErrAccountNotFound = errors.New("account not found in allowlist")

// ErrEmptyAccount is returned when an account name is blank.
var ErrEmptyAccount = errors.New("account name must not be empty")

// Account is one allowlist entry.
type Account struct {
	Name      string    `toml:"name"`
	Status    Status    `toml:"status"`
	Requested time.Time `toml:"requested"`
	Decided   time.Time `toml:"decided,omitempty"`
}

// file is the on-disk TOML layout.
type file struct {
	Accounts []Account `toml:"accounts"`
}

// Store is a file-backed allowlist.
type Store struct {
	path string
	now  func() time.Time
}

// NewStore creates a store backed by the TOML file at path. The file
// does not have to exist yet.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Normalize canonicalizes an account name for lookups.
func Normalize(account string) string {
	return strings.ToLower(strings.TrimSpace(account))
}

func (s *Store) load() (*file, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &file{}, nil
	}
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("read allowlist").
			WithResource(s.path).
			Wrap(err).
			BuildError()
	}

	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("parse allowlist").
			WithResource(s.path).
			WithSuggestion("Fix or remove the corrupted allowlist file").
			Wrap(err).
			BuildError()
	}
	return &f, nil
}

// save writes the allowlist atomically via a temp file and rename.
func (s *Store) save(f *file) error {
	sort.Slice(f.Accounts, func(i, j int) bool {
		return f.Accounts[i].Name < f.Accounts[j].Name
	})

	data, err := toml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode allowlist: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create allowlist directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".allowlist-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp allowlist: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write allowlist: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close allowlist: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace allowlist: %w", err)
	}
	return nil
}

func (f *file) find(name string) int {
	for i := range f.Accounts {
		if f.Accounts[i].Name == name {
			return i
		}
	}
	return -1
}

// Request records an account as waiting. Approved or already-waiting
// accounts are left unchanged. Returns the account's current status.
func (s *Store) Request(account string) (Status, error) {
	name := Normalize(account)
	if name == "" {
		return "", ErrEmptyAccount
	}

	f, err := s.load()
	if err != nil {
		return "", err
	}
	if i := f.find(name); i >= 0 {
		return f.Accounts[i].Status, nil
	}

	f.Accounts = append(f.Accounts, Account{
		Name:      name,
		Status:    StatusWaiting,
		Requested: s.now(),
	})
	if err := s.save(f); err != nil {
		return "", err
	}
	return StatusWaiting, nil
}

// Approve promotes an account to approved, adding it first if unknown.
func (s *Store) Approve(account string) error {
	name := Normalize(account)
	if name == "" {
		return ErrEmptyAccount
	}

	f, err := s.load()
	if err != nil {
		return err
	}

	now := s.now()
	if i := f.find(name); i >= 0 {
		f.Accounts[i].Status = StatusApproved
		f.Accounts[i].Decided = now
	} else {
		f.Accounts = append(f.Accounts, Account{
			Name:      name,
			Status:    StatusApproved,
			Requested: now,
			Decided:   now,
		})
	}
	return s.save(f)
}

// Remove deletes an account from the allowlist.
func (s *Store) Remove(account string) error {
	name := Normalize(account)
	if name == "" {
		return ErrEmptyAccount
	}

	f, err := s.load()
	if err != nil {
		return err
	}
	i := f.find(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, name)
	}
	f.Accounts = append(f.Accounts[:i], f.Accounts[i+1:]...)
	return s.save(f)
}

// IsApproved reports whether an account may trigger runs.
func (s *Store) IsApproved(account string) (bool, error) {
	name := Normalize(account)
	if name == "" {
		return false, ErrEmptyAccount
	}

	f, err := s.load()
	if err != nil {
		return false, err
	}
	i := f.find(name)
	return i >= 0 && f.Accounts[i].Status == StatusApproved, nil
}

// Waiting returns accounts pending approval, sorted by name.
func (s *Store) Waiting() ([]Account, error) {
	return s.byStatus(StatusWaiting)
}

// Approved returns approved accounts, sorted by name.
func (s *Store) Approved() ([]Account, error) {
	return s.byStatus(StatusApproved)
}

func (s *Store) byStatus(status Status) ([]Account, error) {
	f, err := s.load()
	if err != nil {
		return nil, err
	}

	var out []Account
	for _, a := range f.Accounts {
		if a.Status == status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
