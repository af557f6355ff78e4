package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"contactbook/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "users", "users.yml"), filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestAddUserAndVerify(t *testing.T) {
	s := newTestStore(t)

	ok, err := s.AddUser("admin", "secret")
	if err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	if !ok {
		t.Fatal("AddUser rejected a fresh username")
	}

	if !s.Verify("admin", "secret") {
		t.Error("Verify rejected the original password")
	}
	if s.Verify("admin", "wrong") {
		t.Error("Verify accepted a wrong password")
	}
	if s.Verify("nobody", "secret") {
		t.Error("Verify accepted an unknown user")
	}

	exists, err := s.Exists("admin")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("Exists did not find the new user")
	}
}

func TestAddUserDuplicateKeepsHash(t *testing.T) {
	s := newTestStore(t)

	if ok, _ := s.AddUser("admin", "secret"); !ok {
		t.Fatal("First AddUser failed")
	}
	before, err := s.Users()
	if err != nil {
		t.Fatalf("Users failed: %v", err)
	}

	ok, err := s.AddUser("admin", "different")
	if err != nil {
		t.Fatalf("Duplicate AddUser errored: %v", err)
	}
	if ok {
		t.Error("Duplicate AddUser succeeded")
	}

	after, err := s.Users()
	if err != nil {
		t.Fatalf("Users failed: %v", err)
	}
	if before["admin"] != after["admin"] {
		t.Error("Duplicate signup altered the stored password hash")
	}
}

func TestAddUserRejectsEmptyFields(t *testing.T) {
	s := newTestStore(t)

	if ok, _ := s.AddUser("", "secret"); ok {
		t.Error("AddUser accepted an empty username")
	}
	if ok, _ := s.AddUser("admin", ""); ok {
		t.Error("AddUser accepted an empty password")
	}
	if ok, _ := s.AddUser("../escape", "secret"); ok {
		t.Error("AddUser accepted a username with path traversal")
	}
}

func TestAddUserInitializesEmptyBook(t *testing.T) {
	s := newTestStore(t)

	if ok, _ := s.AddUser("admin", "secret"); !ok {
		t.Fatal("AddUser failed")
	}

	if _, err := os.Stat(s.contactsPath("admin")); err != nil {
		t.Fatalf("Contact document was not created: %v", err)
	}

	book, err := s.Contacts("admin")
	if err != nil {
		t.Fatalf("Contacts failed: %v", err)
	}
	if len(book.All()) != 0 {
		t.Errorf("Expected an empty contact book, got %v", book)
	}
}

func TestUsersMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)

	users, err := s.Users()
	if err != nil {
		t.Fatalf("Users failed on missing file: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("Expected empty mapping, got %v", users)
	}
}

func TestUsersCorruptFile(t *testing.T) {
	s := newTestStore(t)

	if err := os.WriteFile(s.usersPath, []byte("{not: [valid"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Users(); err == nil {
		t.Error("Expected an error for a corrupt credentials file")
	}
}

func TestContactsRoundTrip(t *testing.T) {
	s := newTestStore(t)

	book := models.ContactBook{
		Family:  []models.Contact{{Name: "mom", Home: "555-0100"}},
		Friends: []models.Contact{{Name: "mike", Mobile: "555-0101", Email: "mike@example.com"}},
	}
	if err := s.SaveContacts("admin", book); err != nil {
		t.Fatalf("SaveContacts failed: %v", err)
	}

	loaded, err := s.Contacts("admin")
	if err != nil {
		t.Fatalf("Contacts failed: %v", err)
	}
	if len(loaded.Family) != 1 || loaded.Family[0].Name != "mom" {
		t.Errorf("Family bucket did not round-trip: %v", loaded.Family)
	}
	if len(loaded.Friends) != 1 || loaded.Friends[0].Email != "mike@example.com" {
		t.Errorf("Friends bucket did not round-trip: %v", loaded.Friends)
	}
	if len(loaded.Work) != 0 {
		t.Errorf("Work bucket should be empty, got %v", loaded.Work)
	}

	// The persisted document is a plain YAML mapping with the three buckets.
	raw, err := os.ReadFile(s.contactsPath("admin"))
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"family:", "friends:", "work:"} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("Persisted document missing %s key:\n%s", key, raw)
		}
	}
}

func TestUpdateContactsConcurrentAddsKeepEveryWrite(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveContacts("admin", models.ContactBook{}); err != nil {
		t.Fatalf("SaveContacts failed: %v", err)
	}

	// Each add is a full load-mutate-save of the same document; racing
	// adds must not erase each other.
	names := []string{"mike", "sally", "mom", "boss"}
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			err := s.UpdateContacts("admin", func(book *models.ContactBook) error {
				return book.Add(models.CategoryFriends, models.Contact{Name: name})
			})
			if err != nil {
				t.Errorf("UpdateContacts(%s) failed: %v", name, err)
			}
		}(name)
	}
	wg.Wait()

	book, err := s.Contacts("admin")
	if err != nil {
		t.Fatalf("Contacts failed: %v", err)
	}
	if len(book.Friends) != len(names) {
		t.Fatalf("Lost writes: expected %d contacts, got %v", len(names), book.Friends)
	}
	for _, name := range names {
		if !book.HasName(name) {
			t.Errorf("Contact %s vanished from the document", name)
		}
	}
}

func TestUpdateContactsRejectionLeavesDocumentUntouched(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateContacts("admin", func(book *models.ContactBook) error {
		return book.Add(models.CategoryFriends, models.Contact{Name: "mike"})
	})
	if err != nil {
		t.Fatalf("UpdateContacts failed: %v", err)
	}

	// A duplicate inside the update aborts the save
	err = s.UpdateContacts("admin", func(book *models.ContactBook) error {
		return book.Add(models.CategoryWork, models.Contact{Name: "mike"})
	})
	if !errors.Is(err, models.ErrInvalidName) {
		t.Fatalf("Expected ErrInvalidName, got %v", err)
	}

	book, err := s.Contacts("admin")
	if err != nil {
		t.Fatalf("Contacts failed: %v", err)
	}
	if len(book.All()) != 1 || len(book.Work) != 0 {
		t.Errorf("Rejected update modified the document: %v", book)
	}
}

func TestContactsMissingFileIsEmptyBook(t *testing.T) {
	s := newTestStore(t)

	book, err := s.Contacts("ghost")
	if err != nil {
		t.Fatalf("Contacts failed on missing file: %v", err)
	}
	if len(book.All()) != 0 {
		t.Errorf("Expected empty book, got %v", book)
	}
}

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "secret" {
		t.Fatal("HashPassword stored the plaintext")
	}
	if !CheckPasswordHash("secret", hash) {
		t.Error("CheckPasswordHash rejected the original password")
	}
	if CheckPasswordHash("other", hash) {
		t.Error("CheckPasswordHash accepted a different password")
	}
}
