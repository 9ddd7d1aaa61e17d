// Package domain contains the contact record model, its normalization rules and the crawl run
// types shared by the store, the ingestion pipeline and the API.
package domain

import (
	"strings"
)

// ContactRecord is one stored contact. (Name, Location, Email) is unique in the store.
type ContactRecord struct {
	ID       int64   `db:"id"       json:"id"`
	Name     string  `db:"name"     json:"name"`
	Position string  `db:"position" json:"position"`
	Location string  `db:"location" json:"location"`
	Email    *string `db:"email"    json:"email"`
}

// RawRecord is a candidate record as extracted from the page. A nil field was absent.
type RawRecord struct {
	Name     *string `json:"name"`
	Position *string `json:"position"`
	Location *string `json:"location"`
	Email    *string `json:"email"`
}

// Columns lists the contacts table columns in schema order.
var Columns = []string{"id", "name", "position", "location", "email"}

// Normalize converts a raw candidate into a contact: every field is trimmed, name, location and
// email are lowercased, position keeps its case. Absent text fields become empty strings and an
// absent or blank email becomes nil.
func Normalize(raw RawRecord) ContactRecord {
	return ContactRecord{
		Name:     lowerTrim(deref(raw.Name)),
		Position: strings.TrimSpace(deref(raw.Position)),
		Location: lowerTrim(deref(raw.Location)),
		Email:    normalizeEmail(raw.Email),
	}
}

// Normalized returns a copy of c with the same rules as Normalize applied.
func (c ContactRecord) Normalized() ContactRecord {
	out := Normalize(RawRecord{
		Name:     &c.Name,
		Position: &c.Position,
		Location: &c.Location,
		Email:    c.Email,
	})
	out.ID = c.ID
	return out
}

// IsEmpty reports whether all four content fields are empty.
func (c ContactRecord) IsEmpty() bool {
	return c.Name == "" && c.Position == "" && c.Location == "" && (c.Email == nil || *c.Email == "")
}

// EmailValue returns the email or "" when it is null.
func (c ContactRecord) EmailValue() string {
	return deref(c.Email)
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	v := lowerTrim(*email)
	if v == "" {
		return nil
	}
	return &v
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
