package memory

import (
	"sort"
	"sync"

	"telegram-agenda-bridge/internal/models"
)

// ConversationStore keeps the per-chat state the resolution engine depends
// on: the last known agenda listing, the pending confirmation (if any), the
// set of chats ever seen (for the reminder poller) and a dedup ledger for
// already-pushed reminders.
type ConversationStore interface {
	Snapshot(chatID int64) ([]models.AgendaItem, error)
	SetSnapshot(chatID int64, items []models.AgendaItem) error
	ClearSnapshot(chatID int64) error

	Pending(chatID int64) (models.PendingAction, bool, error)
	SetPending(chatID int64, p models.PendingAction) error
	ClearPending(chatID int64) error

	// Touch registers a chat so the reminder poller can find it later.
	Touch(chatID int64) error
	Chats() ([]int64, error)

	// MarkNotified records that a reminder identified by key was pushed to
	// the chat. Returns true the first time, false on repeats.
	MarkNotified(chatID int64, key string) (bool, error)
}

// Store is the in-process implementation: plain maps keyed by chat id,
// lifecycle tied to process uptime. Loss on restart is acceptable.
type Store struct {
	mu        sync.Mutex
	snapshots map[int64][]models.AgendaItem
	pending   map[int64]models.PendingAction
	chats     map[int64]struct{}
	notified  map[int64]map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		snapshots: make(map[int64][]models.AgendaItem),
		pending:   make(map[int64]models.PendingAction),
		chats:     make(map[int64]struct{}),
		notified:  make(map[int64]map[string]struct{}),
	}
}

func (s *Store) Snapshot(chatID int64) ([]models.AgendaItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.snapshots[chatID]
	out := make([]models.AgendaItem, len(items))
	copy(out, items)
	return out, nil
}

func (s *Store) SetSnapshot(chatID int64, items []models.AgendaItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]models.AgendaItem, len(items))
	copy(cp, items)
	s.snapshots[chatID] = cp
	return nil
}

func (s *Store) ClearSnapshot(chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, chatID)
	return nil
}

func (s *Store) Pending(chatID int64) (models.PendingAction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[chatID]
	return p, ok, nil
}

func (s *Store) SetPending(chatID int64, p models.PendingAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[chatID] = p
	return nil
}

func (s *Store) ClearPending(chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, chatID)
	return nil
}

func (s *Store) Touch(chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chatID] = struct{}{}
	return nil
}

func (s *Store) Chats() ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.chats))
	for id := range s.chats {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *Store) MarkNotified(chatID int64, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen, ok := s.notified[chatID]
	if !ok {
		seen = make(map[string]struct{})
		s.notified[chatID] = seen
	}
	if _, dup := seen[key]; dup {
		return false, nil
	}
	seen[key] = struct{}{}
	return true, nil
}
