// Package store is the in-memory persistence used by the development backend (portal-mockapi).
//
// Each resource lives in a Table keyed by a sequential id. Tables are safe for concurrent use.
// Nothing is persisted: restarting the process restores the seed data.
package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/pondok-digital/portal/internal/services"
)

var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource already exists")
)

// Table holds rows of T keyed by id
type Table[T any] struct {
	mu     sync.RWMutex
	nextID uint
	rows   map[uint]T
}

func NewTable[T any]() *Table[T] {
	return &Table[T]{rows: make(map[uint]T)}
}

// Insert assigns the next id and stores the row returned by build.
// When conflicts is not nil and reports true for any existing row the insert fails with ErrConflict.
func (t *Table[T]) Insert(build func(id uint) (T, error), conflicts func(existing, row T) bool) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	row, err := build(t.nextID + 1)
	if err != nil {
		return zero, err
	}
	if conflicts != nil {
		for _, existing := range t.rows {
			if conflicts(existing, row) {
				return zero, ErrConflict
			}
		}
	}
	t.nextID++
	t.rows[t.nextID] = row
	return row, nil
}

func (t *Table[T]) Get(id uint) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return row, nil
}

// Find returns the first row, in id order, for which match reports true
func (t *Table[T]) Find(match func(T) bool) (T, error) {
	for _, row := range t.List() {
		if match(row) {
			return row, nil
		}
	}
	var zero T
	return zero, ErrNotFound
}

// List returns every row in id order
func (t *Table[T]) List() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]uint, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([]T, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, t.rows[id])
	}
	return rows
}

// Filter returns the rows, in id order, for which match reports true
func (t *Table[T]) Filter(match func(T) bool) []T {
	rows := make([]T, 0)
	for _, row := range t.List() {
		if match(row) {
			rows = append(rows, row)
		}
	}
	return rows
}

// Update applies fn to a copy of the row and stores the result unless fn fails
func (t *Table[T]) Update(id uint, fn func(row *T) error) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	if err := fn(&row); err != nil {
		var zero T
		return zero, err
	}
	t.rows[id] = row
	return row, nil
}

func (t *Table[T]) Delete(id uint) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

func (t *Table[T]) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Page slices rows for a 1-based page. It returns the items and the total page count.
func Page[T any](rows []T, page, limit int) ([]T, int) {
	if limit < 1 {
		return rows, 1
	}
	if page < 1 {
		page = 1
	}
	totalPages := (len(rows) + limit - 1) / limit
	// compared before multiplying so a huge page cannot overflow start
	if page-1 > len(rows)/limit {
		return []T{}, totalPages
	}
	start := (page - 1) * limit
	if start >= len(rows) {
		return []T{}, totalPages
	}
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], totalPages
}

// User is an admin account with its password hash
type User struct {
	services.User
	PasswordHash string
	CreatedAt    time.Time
}

// Store groups the tables served by the development backend
type Store struct {
	Users        *Table[User]
	Articles     *Table[services.Article]
	Categories   *Table[services.Category]
	Tags         *Table[services.Tag]
	Videos       *Table[services.Video]
	Achievements *Table[services.Achievement]
	Galleries    *Table[services.Gallery]
	Messages     *Table[services.Message]
	Registrants  *Table[services.Registrant]
	ActivityLogs *Table[services.ActivityLog]
}

func New() *Store {
	return &Store{
		Users:        NewTable[User](),
		Articles:     NewTable[services.Article](),
		Categories:   NewTable[services.Category](),
		Tags:         NewTable[services.Tag](),
		Videos:       NewTable[services.Video](),
		Achievements: NewTable[services.Achievement](),
		Galleries:    NewTable[services.Gallery](),
		Messages:     NewTable[services.Message](),
		Registrants:  NewTable[services.Registrant](),
		ActivityLogs: NewTable[services.ActivityLog](),
	}
}

// Activity describes one audited action
type Activity struct {
	UserID     uint
	Action     string // CREATE, UPDATE, DELETE, LOGIN, LOGOUT, VERIFY
	EntityType string
	EntityID   *uint
	IPAddress  string
	UserAgent  string
}

// Record appends an activity log entry. Logging never fails the audited action.
func (s *Store) Record(a Activity) {
	var user *services.User
	if u, err := s.Users.Get(a.UserID); err == nil {
		user = &u.User
	}
	_, _ = s.ActivityLogs.Insert(func(id uint) (services.ActivityLog, error) {
		return services.ActivityLog{
			ID:         id,
			UserID:     a.UserID,
			User:       user,
			Action:     a.Action,
			EntityType: a.EntityType,
			EntityID:   a.EntityID,
			IPAddress:  a.IPAddress,
			UserAgent:  a.UserAgent,
			CreatedAt:  time.Now().UTC(),
		}, nil
	}, nil)
}
