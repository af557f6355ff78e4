package models

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidName rejects contact names that are empty after trimming
	// or that already exist anywhere in the user's contact book.
	ErrInvalidName = errors.New("invalid contact name")

	// ErrUnknownCategory rejects categories outside the fixed bucket set.
	ErrUnknownCategory = errors.New("unknown contact category")
)

// Category is one of the three fixed contact buckets, plus the read-only
// pseudo-category "all".
type Category string

const (
	CategoryAll     Category = "all"
	CategoryFamily  Category = "family"
	CategoryFriends Category = "friends"
	CategoryWork    Category = "work"
)

// Buckets lists the writable categories in display and flatten order.
var Buckets = []Category{CategoryFamily, CategoryFriends, CategoryWork}

// ParseCategory validates a user-supplied category name for read paths,
// where "all" is a valid selection.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryAll, CategoryFamily, CategoryFriends, CategoryWork:
		return Category(s), true
	}
	return "", false
}

// ParseBucket validates a user-supplied category name for write paths,
// where only the three real buckets are valid.
func ParseBucket(s string) (Category, bool) {
	switch Category(s) {
	case CategoryFamily, CategoryFriends, CategoryWork:
		return Category(s), true
	}
	return "", false
}

type Contact struct {
	Name   string `yaml:"name"`
	Mobile string `yaml:"mobile"`
	Home   string `yaml:"home"`
	Email  string `yaml:"email"`
}

// ContactBook is one user's full contact document: three named, ordered
// buckets. The zero value is a valid empty book.
type ContactBook struct {
	Family  []Contact `yaml:"family"`
	Friends []Contact `yaml:"friends"`
	Work    []Contact `yaml:"work"`
}

// All returns every contact in fixed bucket order (family, friends, work),
// preserving insertion order within each bucket.
func (b ContactBook) All() []Contact {
	all := make([]Contact, 0, len(b.Family)+len(b.Friends)+len(b.Work))
	all = append(all, b.Family...)
	all = append(all, b.Friends...)
	all = append(all, b.Work...)
	return all
}

// Bucket returns the contacts of a single category, or all contacts for
// CategoryAll.
func (b ContactBook) Bucket(c Category) []Contact {
	switch c {
	case CategoryFamily:
		return b.Family
	case CategoryFriends:
		return b.Friends
	case CategoryWork:
		return b.Work
	case CategoryAll:
		return b.All()
	}
	return nil
}

// HasName reports whether any contact in any bucket has exactly the given
// name after trimming.
func (b ContactBook) HasName(name string) bool {
	name = strings.TrimSpace(name)
	for _, c := range b.All() {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Add appends a contact to the named bucket. The contact name is trimmed;
// an empty or duplicate name is rejected, as is a category outside the
// fixed bucket set.
func (b *ContactBook) Add(category Category, contact Contact) error {
	contact.Name = strings.TrimSpace(contact.Name)
	if contact.Name == "" || b.HasName(contact.Name) {
		return ErrInvalidName
	}

	switch category {
	case CategoryFamily:
		b.Family = append(b.Family, contact)
	case CategoryFriends:
		b.Friends = append(b.Friends, contact)
	case CategoryWork:
		b.Work = append(b.Work, contact)
	default:
		return ErrUnknownCategory
	}
	return nil
}
