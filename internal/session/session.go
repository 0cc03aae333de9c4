// Package session carries the signed-in identity explicitly through request
// contexts and lets clients observe sign-in state transitions.
package session

import (
	"context"
	"strings"
	"sync"
)

// Identity is the authenticated author as reported by the auth provider.
type Identity struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Owns reports whether the identity may mutate a record stored with ownerEmail.
func (i Identity) Owns(ownerEmail string) bool {
	return i.Email != "" && strings.EqualFold(i.Email, ownerEmail)
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by WithIdentity, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Status is the sign-in state of a session.
type Status string

const (
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// State is a snapshot delivered to subscribers on every transition.
type State struct {
	Status   Status
	Identity Identity
	Token    string
}

// Source is the capability to read and observe a session.
type Source interface {
	Current() State
	Subscribe(fn func(State)) (unsubscribe func())
}

// Tracker holds the current session state and fans out transitions.
type Tracker struct {
	mu     sync.Mutex
	state  State
	nextID int
	subs   map[int]func(State)
}

// NewTracker returns a Tracker in the loading state.
func NewTracker() *Tracker {
	return &Tracker{
		state: State{Status: StatusLoading},
		subs:  map[int]func(State){},
	}
}

func (t *Tracker) Current() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Subscribe registers fn and immediately delivers the current state to it.
func (t *Tracker) Subscribe(fn func(State)) (unsubscribe func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	current := t.state
	t.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
		})
	}
}

// SignIn transitions to authenticated with the given identity and bearer token.
func (t *Tracker) SignIn(id Identity, token string) {
	t.set(State{Status: StatusAuthenticated, Identity: id, Token: token})
}

// SignOut transitions to unauthenticated and forgets the identity.
func (t *Tracker) SignOut() {
	t.set(State{Status: StatusUnauthenticated})
}

func (t *Tracker) set(s State) {
	t.mu.Lock()
	if t.state == s {
		t.mu.Unlock()
		return
	}
	t.state = s
	subs := make([]func(State), 0, len(t.subs))
	for _, fn := range t.subs {
		subs = append(subs, fn)
	}
	t.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}
