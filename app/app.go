package app

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"todo-app/model"
)

var (
	ErrEmptyText     = errors.New("task text must not be empty")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrItemNotFound  = errors.New("item not found")
	ErrAlreadyReady  = errors.New("items already loaded")
)

// Persister receives a full snapshot of the canonical list after every
// mutation. Implementations must not block the caller.
type Persister interface {
	Save(items []model.Item)
}

// Phase is the readiness of the store.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
)

func (p Phase) String() string {
	if p == PhaseReady {
		return "ready"
	}
	return "loading"
}

// Option customises a Service.
type Option func(*Service)

// WithIDGenerator replaces the id source used by Add.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service owns the canonical item list and everything derived from it.
// It is not safe for concurrent use; callers dispatch events serially.
type Service struct {
	items       []model.Item
	filter      model.Filter
	input       string
	allComplete bool
	phase       Phase
	revision    uint64

	persister Persister
	newID     func() string
	logger    *log.Logger
}

// NewService creates an empty store in the loading phase. A nil persister
// disables persistence.
func NewService(p Persister, opts ...Option) *Service {
	s := &Service{
		items:     []model.Item{},
		filter:    model.FilterAll,
		phase:     PhaseLoading,
		persister: p,
		newID:     newID,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate installs the loaded list and moves the store to ready. It only
// succeeds once. Duplicate ids are dropped, keeping the first occurrence.
func (s *Service) Hydrate(items []model.Item) error {
	if s.phase == PhaseReady {
		return ErrAlreadyReady
	}

	seen := make(map[string]bool, len(items))
	loaded := make([]model.Item, 0, len(items))
	for _, it := range items {
		if seen[it.ID] {
			s.logger.Warn("dropping item with duplicate id", "id", it.ID)
			continue
		}
		seen[it.ID] = true
		loaded = append(loaded, it)
	}

	// Anything added while loading is kept after the stored items.
	for _, it := range s.items {
		if !seen[it.ID] {
			loaded = append(loaded, it)
		}
	}

	s.items = loaded
	s.allComplete = everyComplete(loaded)
	s.phase = PhaseReady
	s.revision++
	return nil
}

// Phase reports the readiness state.
func (s *Service) Phase() Phase {
	return s.phase
}

// Ready reports whether Hydrate has completed.
func (s *Service) Ready() bool {
	return s.phase == PhaseReady
}

// Revision increases every time the canonical list or the filter changes.
func (s *Service) Revision() uint64 {
	return s.revision
}

// Items returns a copy of the canonical list.
func (s *Service) Items() []model.Item {
	return model.CloneItems(s.items)
}

// Visible returns the filtered view of the canonical list.
func (s *Service) Visible() []model.Item {
	return model.FilterItems(s.filter, s.items)
}

// Get returns the item with the given id.
func (s *Service) Get(id string) (model.Item, error) {
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], nil
	}
	return model.Item{}, ErrItemNotFound
}

// Filter returns the active filter.
func (s *Service) Filter() model.Filter {
	return s.filter
}

// FilterCounts tallies the canonical list per filter.
func (s *Service) FilterCounts() model.Counts {
	return model.CountItems(s.items)
}

// AllComplete reports the state the toggle-all control is in.
func (s *Service) AllComplete() bool {
	return s.allComplete
}

// Input returns the pending text of the add field.
func (s *Service) Input() string {
	return s.input
}

// SetInput replaces the pending text of the add field.
func (s *Service) SetInput(text string) {
	s.input = text
}

// Add appends a new open item with text stored as given. Only the empty
// string is rejected, with ErrEmptyText, and it leaves the list untouched.
func (s *Service) Add(text string) (model.Item, error) {
	if text == "" {
		return model.Item{}, ErrEmptyText
	}

	id := s.newID()
	for s.indexOf(id) >= 0 {
		id = s.newID()
	}
	item := model.Item{ID: id, Text: text}

	next := make([]model.Item, len(s.items), len(s.items)+1)
	copy(next, s.items)
	next = append(next, item)
	s.commit(next)
	return item, nil
}

// SubmitInput adds the pending input text and clears it on success.
func (s *Service) SubmitInput() (model.Item, error) {
	item, err := s.Add(s.input)
	if err != nil {
		return model.Item{}, err
	}
	s.input = ""
	return item, nil
}

// Remove deletes the item with the given id. Unknown ids are ignored.
func (s *Service) Remove(id string) {
	if s.indexOf(id) < 0 {
		return
	}
	next := make([]model.Item, 0, len(s.items)-1)
	for _, it := range s.items {
		if it.ID != id {
			next = append(next, it)
		}
	}
	s.commit(next)
}

// SetComplete sets the completion flag of one item.
func (s *Service) SetComplete(id string, complete bool) {
	s.update(id, func(it *model.Item) bool {
		if it.Complete == complete {
			return false
		}
		it.Complete = complete
		return true
	})
}

// UpdateText replaces the label of one item. Empty text is allowed while
// editing.
func (s *Service) UpdateText(id, text string) {
	s.update(id, func(it *model.Item) bool {
		if it.Text == text {
			return false
		}
		it.Text = text
		return true
	})
}

// SetEditing flags one item as being edited.
func (s *Service) SetEditing(id string, editing bool) {
	s.update(id, func(it *model.Item) bool {
		if it.Editing == editing {
			return false
		}
		it.Editing = editing
		return true
	})
}

// ToggleAllComplete flips the toggle-all control and applies its new state
// to every item.
func (s *Service) ToggleAllComplete() {
	complete := !s.allComplete
	next := make([]model.Item, len(s.items))
	for i, it := range s.items {
		it.Complete = complete
		next[i] = it
	}
	s.commit(next)
	s.allComplete = complete
}

// SetFilter changes the filtered view. Nothing is persisted.
func (s *Service) SetFilter(filter model.Filter) error {
	if !filter.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFilter, filter)
	}
	if filter != s.filter {
		s.filter = filter
		s.revision++
	}
	return nil
}

func (s *Service) update(id string, apply func(*model.Item) bool) {
	i := s.indexOf(id)
	if i < 0 {
		return
	}
	it := s.items[i]
	if !apply(&it) {
		return
	}
	next := model.CloneItems(s.items)
	next[i] = it
	s.commit(next)
}

// commit swaps in a new canonical list and schedules persistence.
func (s *Service) commit(next []model.Item) {
	s.items = next
	s.allComplete = everyComplete(next)
	s.revision++
	if s.persister != nil {
		s.persister.Save(model.CloneItems(next))
	}
}

func (s *Service) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func everyComplete(items []model.Item) bool {
	if len(items) == 0 {
		return false
	}
	for _, it := range items {
		if !it.Complete {
			return false
		}
	}
	return true
}

func newID() string {
	id, err := uuid.NewV7()
	if err == nil {
		return id.String()
	}
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UTC().UnixNano())
	}
	return hex.EncodeToString(buf)
}
