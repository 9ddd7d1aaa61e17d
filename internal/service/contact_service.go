// Package service implements the contact query and command operations on top of the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonesrussell/roster/internal/database"
	"github.com/jonesrussell/roster/internal/domain"
	"github.com/jonesrussell/roster/internal/events"
	"github.com/jonesrussell/roster/internal/infrastructure/logger"
)

const (
	// DefaultPageSkip is the offset used when none is given.
	DefaultPageSkip = 0
	// DefaultPageLimit is the page size used when none is given.
	DefaultPageLimit = 20
	// MaxPageLimit caps the page size.
	MaxPageLimit = 1000
)

// Mutation operations reported to the MutationObserver.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ErrInvalidQuery is returned for out-of-range query parameters.
var ErrInvalidQuery = errors.New("invalid query")

// ContactStore is the subset of the contact repository the service needs.
type ContactStore interface {
	List(ctx context.Context) ([]domain.ContactRecord, error)
	Search(ctx context.Context, filter database.SearchFilter) ([]domain.ContactRecord, error)
	Page(ctx context.Context, offset, limit int) ([]domain.ContactRecord, error)
	Count(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id int64) (domain.ContactRecord, error)
	Create(ctx context.Context, c domain.ContactRecord) (domain.ContactRecord, error)
	Update(ctx context.Context, id int64, patch domain.ContactPatch) (domain.ContactRecord, error)
	DeleteByName(ctx context.Context, name string) (int64, error)
	DeleteByID(ctx context.Context, id int64) error
	PositionCounts(ctx context.Context) ([]database.PositionCount, error)
}

// ContactEvents announces contact changes.
type ContactEvents interface {
	ContactChanged(eventType events.EventType, c domain.ContactRecord)
	ContactsDeleted(subject string, removed int64)
}

// MutationObserver counts contact writes.
type MutationObserver interface {
	ContactMutated(operation string)
}

// Page is one slice of the contact list.
type Page struct {
	Items []domain.ContactRecord `json:"items"`
	Skip  int                    `json:"skip"`
	Limit int                    `json:"limit"`
	Total int64                  `json:"total"`
}

// ContactService implements the query and command operations.
type ContactService struct {
	store    ContactStore
	log      logger.Logger
	events   ContactEvents
	observer MutationObserver
}

// Option configures a ContactService.
type Option func(*ContactService)

// WithEvents publishes contact changes to e.
func WithEvents(e ContactEvents) Option {
	return func(s *ContactService) {
		s.events = e
	}
}

// WithMutationObserver reports writes to o.
func WithMutationObserver(o MutationObserver) Option {
	return func(s *ContactService) {
		s.observer = o
	}
}

// NewContactService creates a contact service.
func NewContactService(store ContactStore, log logger.Logger, opts ...Option) *ContactService {
	if log == nil {
		log = logger.NewNop()
	}
	s := &ContactService{store: store, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every contact.
func (s *ContactService) List(ctx context.Context) ([]domain.ContactRecord, error) {
	return s.store.List(ctx)
}

// Search returns contacts whose name and location contain the given substrings, ignoring case.
// Empty filters match everything.
func (s *ContactService) Search(ctx context.Context, name, location string) ([]domain.ContactRecord, error) {
	return s.store.Search(ctx, database.SearchFilter{Name: name, Location: location})
}

// Paginate returns limit contacts after skip, ordered by id. Nil arguments take the defaults.
func (s *ContactService) Paginate(ctx context.Context, skip, limit *int) (Page, error) {
	page := Page{Skip: DefaultPageSkip, Limit: DefaultPageLimit}
	if skip != nil {
		page.Skip = *skip
	}
	if limit != nil {
		page.Limit = *limit
	}

	if page.Skip < 0 {
		return Page{}, fmt.Errorf("%w: skip must not be negative", ErrInvalidQuery)
	}
	if page.Limit < 1 || page.Limit > MaxPageLimit {
		return Page{}, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidQuery, MaxPageLimit)
	}

	items, err := s.store.Page(ctx, page.Skip, page.Limit)
	if err != nil {
		return Page{}, err
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return Page{}, err
	}

	page.Items = items
	page.Total = total
	return page, nil
}

// Get returns one contact.
func (s *ContactService) Get(ctx context.Context, id int64) (domain.ContactRecord, error) {
	return s.store.GetByID(ctx, id)
}

// Create validates and stores a new contact.
func (s *ContactService) Create(ctx context.Context, in domain.ContactInput) (domain.ContactRecord, error) {
	c, err := in.ToContact()
	if err != nil {
		return domain.ContactRecord{}, err
	}

	created, err := s.store.Create(ctx, c)
	if err != nil {
		return domain.ContactRecord{}, err
	}

	s.log.Info("Contact created", logger.Int64("contact_id", created.ID), logger.String("name", created.Name))
	s.mutated(OpCreate)
	if s.events != nil {
		s.events.ContactChanged(events.ContactCreated, created)
	}
	return created, nil
}

// Update applies a partial update decoded from a JSON object.
func (s *ContactService) Update(ctx context.Context, id int64, fields map[string]any) (domain.ContactRecord, error) {
	patch, err := domain.ParsePatch(fields)
	if err != nil {
		return domain.ContactRecord{}, err
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return domain.ContactRecord{}, err
	}

	s.log.Info("Contact updated", logger.Int64("contact_id", id))
	s.mutated(OpUpdate)
	if s.events != nil {
		s.events.ContactChanged(events.ContactUpdated, updated)
	}
	return updated, nil
}

// DeleteByName removes every contact with name, matched after normalization. It returns the
// number of rows removed.
func (s *ContactService) DeleteByName(ctx context.Context, name string) (int64, error) {
	normalized := domain.Normalize(domain.RawRecord{Name: &name}).Name
	if normalized == "" {
		return 0, fmt.Errorf("%w: name is required", domain.ErrInvalidContact)
	}

	removed, err := s.store.DeleteByName(ctx, normalized)
	if err != nil {
		return 0, err
	}

	s.log.Info("Contacts deleted by name", logger.String("name", normalized), logger.Int64("removed", removed))
	s.mutated(OpDelete)
	if s.events != nil {
		s.events.ContactsDeleted(normalized, removed)
	}
	return removed, nil
}

// DeleteByID removes one contact.
func (s *ContactService) DeleteByID(ctx context.Context, id int64) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.log.Info("Contact deleted", logger.Int64("contact_id", id))
	s.mutated(OpDelete)
	if s.events != nil {
		s.events.ContactsDeleted(strconv.FormatInt(id, 10), 1)
	}
	return nil
}

// Positions returns the position distribution, most common first.
func (s *ContactService) Positions(ctx context.Context) ([]database.PositionCount, error) {
	return s.store.PositionCounts(ctx)
}

func (s *ContactService) mutated(op string) {
	if s.observer != nil {
		s.observer.ContactMutated(op)
	}
}

// ParseID parses a path id.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: id must be a positive integer", ErrInvalidQuery)
	}
	return id, nil
}
