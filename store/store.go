package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"contactbook/models"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Store persists the credential mapping and the per-user contact documents
// as YAML files. Every access loads a full document and every mutation
// rewrites it whole; a single mutex serializes file access, and document
// updates go through UpdateContacts, which holds the lock across the whole
// load-mutate-save cycle so concurrent requests cannot silently drop each
// other's writes.
type Store struct {
	mu        sync.Mutex
	usersPath string
	dataDir   string
}

// New prepares a store rooted at the given credentials file and contacts
// directory, creating the directories if needed.
func New(usersPath, dataDir string) (*Store, error) {
	if dir := filepath.Dir(usersPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return &Store{usersPath: usersPath, dataDir: dataDir}, nil
}

// Users loads the full credential mapping. A missing file reads as an
// empty mapping; an unreadable or malformed file is an error.
func (s *Store) Users() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadUsers()
}

// Exists reports whether a username is already registered.
func (s *Store) Exists(username string) (bool, error) {
	users, err := s.Users()
	if err != nil {
		return false, err
	}
	_, ok := users[username]
	return ok, nil
}

// Verify reports whether the plaintext password matches the stored hash
// for the username. Unknown users and storage failures verify as false.
func (s *Store) Verify(username, password string) bool {
	users, err := s.Users()
	if err != nil {
		return false
	}
	hash, ok := users[username]
	return ok && CheckPasswordHash(password, hash)
}

// AddUser registers a new user and initializes their empty contact book.
// It returns false without touching the store when the username is taken
// or either field is empty. The credentials file is snapshotted first so a
// failed contact-book write can be rolled back instead of leaving the two
// files inconsistent.
func (s *Store) AddUser(username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	// The username becomes a file name under dataDir.
	if strings.ContainsAny(username, `/\`) || strings.Contains(username, "..") {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers()
	if err != nil {
		return false, err
	}
	if _, ok := users[username]; ok {
		return false, nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}

	snapshot, snapErr := os.ReadFile(s.usersPath)
	if snapErr != nil && !os.IsNotExist(snapErr) {
		return false, fmt.Errorf("snapshotting credentials: %w", snapErr)
	}

	users[username] = hash
	if err := s.writeUsers(users); err != nil {
		return false, err
	}

	if err := s.writeContacts(username, models.ContactBook{}); err != nil {
		if snapErr == nil {
			os.WriteFile(s.usersPath, snapshot, 0o600)
		} else {
			os.Remove(s.usersPath)
		}
		return false, fmt.Errorf("initializing contact book: %w", err)
	}

	return true, nil
}

// Contacts loads a user's full contact document. A missing file reads as
// an empty book: the credentials file and the contact documents are not
// written atomically at signup, so one can exist without the other.
func (s *Store) Contacts(username string) (models.ContactBook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadContacts(username)
}

// SaveContacts rewrites a user's full contact document.
func (s *Store) SaveContacts(username string, book models.ContactBook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeContacts(username, book)
}

// UpdateContacts applies fn to a user's contact document and persists the
// result, keeping the lock for the whole cycle. Two concurrent updates for
// the same user therefore always see each other's writes; a separate
// Contacts + SaveContacts pair would not. The document is left untouched
// when fn returns an error.
func (s *Store) UpdateContacts(username string, fn func(*models.ContactBook) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, err := s.loadContacts(username)
	if err != nil {
		return err
	}
	if err := fn(&book); err != nil {
		return err
	}
	return s.writeContacts(username, book)
}

func (s *Store) loadContacts(username string) (models.ContactBook, error) {
	var book models.ContactBook
	data, err := os.ReadFile(s.contactsPath(username))
	if os.IsNotExist(err) {
		return book, nil
	}
	if err != nil {
		return book, fmt.Errorf("reading contacts for %s: %w", username, err)
	}
	if err := yaml.Unmarshal(data, &book); err != nil {
		return book, fmt.Errorf("parsing contacts for %s: %w", username, err)
	}
	return book, nil
}

func (s *Store) loadUsers() (map[string]string, error) {
	users := map[string]string{}
	data, err := os.ReadFile(s.usersPath)
	if os.IsNotExist(err) {
		return users, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	if err := yaml.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	if users == nil {
		users = map[string]string{}
	}
	return users, nil
}

func (s *Store) writeUsers(users map[string]string) error {
	data, err := yaml.Marshal(users)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.usersPath, data, 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

func (s *Store) writeContacts(username string, book models.ContactBook) error {
	data, err := yaml.Marshal(book)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.contactsPath(username), data, 0o600); err != nil {
		return fmt.Errorf("writing contacts for %s: %w", username, err)
	}
	return nil
}

func (s *Store) contactsPath(username string) string {
	return filepath.Join(s.dataDir, username+".yml")
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
