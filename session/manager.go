package session

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/innovatetogether/go-innovate/core"
)

// Manager is an observable in-process session holder. Subscribers are
// notified outside the lock, one event at a time, in transition order. A
// transition made while callbacks are running is delivered by the goroutine
// already delivering, after the current callback returns.
type Manager struct {
	mu          sync.Mutex
	current     core.Session
	present     bool
	nextID      uint64
	subscribers map[uint64]func(core.Session, bool)
	pending     []sessionEvent
	delivering  bool
}

type sessionEvent struct {
	session core.Session
	present bool
	targets []uint64
}

func NewManager() *Manager {
	return &Manager{subscribers: map[uint64]func(core.Session, bool){}}
}

func (m *Manager) Current() (core.Session, bool) {
	if m == nil {
		return core.Session{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.present
}

// Subscribe registers fn and invokes it once with the current state. Unless
// another delivery is in progress, that call happens before Subscribe returns.
func (m *Manager) Subscribe(fn func(session core.Session, present bool)) func() {
	if m == nil || fn == nil {
		return func() {}
	}
	m.mu.Lock()
	if m.subscribers == nil {
		m.subscribers = map[uint64]func(core.Session, bool){}
	}
	m.nextID++
	id := m.nextID
	m.subscribers[id] = fn
	m.pending = append(m.pending, sessionEvent{session: m.current, present: m.present, targets: []uint64{id}})
	m.mu.Unlock()

	m.deliver()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subscribers, id)
			m.mu.Unlock()
		})
	}
}

func (m *Manager) SignIn(session core.Session) error {
	if m == nil {
		return fmt.Errorf("session: manager is nil")
	}
	session.SubjectID = strings.TrimSpace(session.SubjectID)
	if session.SubjectID == "" {
		return fmt.Errorf("session: subject id is required")
	}
	if session.Tokens == nil {
		return fmt.Errorf("session: token source is required")
	}
	m.transition(session, true)
	return nil
}

// SignInWithIDToken signs in with the subject carried by a raw ID token. The
// token itself becomes the bearer credential.
func (m *Manager) SignInWithIDToken(idToken string) error {
	subject, err := SubjectFromIDToken(idToken)
	if err != nil {
		return err
	}
	return m.SignIn(core.Session{SubjectID: subject, Tokens: NewStaticTokenSource(idToken)})
}

func (m *Manager) SignOut() {
	if m == nil {
		return
	}
	m.transition(core.Session{}, false)
}

func (m *Manager) transition(session core.Session, present bool) {
	m.mu.Lock()
	m.current = session
	m.present = present
	ids := make([]uint64, 0, len(m.subscribers))
	for id := range m.subscribers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	m.pending = append(m.pending, sessionEvent{session: session, present: present, targets: ids})
	m.mu.Unlock()

	m.deliver()
}

// deliver drains pending events. Only one goroutine drains at a time, and a
// subscriber removed before its turn is skipped.
func (m *Manager) deliver() {
	m.mu.Lock()
	if m.delivering {
		m.mu.Unlock()
		return
	}
	m.delivering = true
	for len(m.pending) > 0 {
		event := m.pending[0]
		m.pending = m.pending[1:]
		for _, id := range event.targets {
			fn, ok := m.subscribers[id]
			if !ok {
				continue
			}
			m.mu.Unlock()
			fn(event.session, event.present)
			m.mu.Lock()
		}
	}
	m.delivering = false
	m.mu.Unlock()
}

var _ core.SessionProvider = (*Manager)(nil)
