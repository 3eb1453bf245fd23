package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/logging"
)

// SessionStore keeps the signed-in user's profile and publishes every
// change to its subscribers. A nil profile means signed out.
type SessionStore struct {
	auth     gateway.Auth
	profiles gateway.Profiles
	log      logging.Logger
	now      func() time.Time

	mu        sync.RWMutex
	ctx       context.Context
	session   *models.Session
	profile   *models.Profile
	gen       uint64
	nextSub   int
	subs      map[int]func(*models.Profile)
	unsubAuth func()
}

func NewSessionStore(auth gateway.Auth, profiles gateway.Profiles, log logging.Logger) *SessionStore {
	return &SessionStore{
		auth:     auth,
		profiles: profiles,
		log:      logging.OrNop(log),
		now:      time.Now,
		ctx:      context.Background(),
		subs:     make(map[int]func(*models.Profile)),
	}
}

// Start restores a persisted session and follows auth events until Close.
// ctx bounds the profile fetches triggered by later auth events.
func (s *SessionStore) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.unsubAuth != nil {
		s.mu.Unlock()
		return nil
	}
	s.ctx = ctx
	s.unsubAuth = s.auth.Subscribe(s.onAuthEvent)
	s.mu.Unlock()

	sess, err := s.auth.CurrentSession(ctx)
	if err != nil {
		s.publish(s.bump(), nil, nil)
		return fmt.Errorf("restore session: %w", err)
	}
	s.resolve(ctx, s.bump(), sess)
	return nil
}

func (s *SessionStore) onAuthEvent(ev models.AuthEvent) {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()

	g := s.bump()
	if ev.Session == nil {
		s.publish(g, nil, nil)
		return
	}
	s.resolve(ctx, g, ev.Session)
}

// bump invalidates profile fetches still in flight.
func (s *SessionStore) bump() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

func (s *SessionStore) resolve(ctx context.Context, g uint64, sess *models.Session) {
	if sess == nil {
		s.publish(g, nil, nil)
		return
	}
	p, err := s.profiles.GetProfile(ctx, sess.UserID)
	if err != nil {
		s.log.Warn(ctx, "profile fetch failed, treating as signed out", "user_id", sess.UserID, "error", err)
		s.publish(g, nil, nil)
		return
	}
	s.publish(g, sess, p)
}

func (s *SessionStore) publish(g uint64, sess *models.Session, p *models.Profile) {
	s.mu.Lock()
	if g != s.gen {
		s.mu.Unlock()
		return
	}
	changed := s.profile != nil || p != nil
	s.session, s.profile = sess, p
	var fns []func(*models.Profile)
	if changed {
		fns = s.listeners()
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}

// listeners must be called with mu held.
func (s *SessionStore) listeners() []func(*models.Profile) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(*models.Profile), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	return fns
}

// Current returns the signed-in profile or nil.
func (s *SessionStore) Current() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// UserID returns the signed-in user id or "".
func (s *SessionStore) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	return s.session.UserID
}

// Subscribe registers fn for profile changes. fn runs synchronously on the
// goroutine that caused the change.
func (s *SessionStore) Subscribe(fn func(*models.Profile)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Logout signs out and clears the profile even when the sign-out call
// fails.
func (s *SessionStore) Logout(ctx context.Context) error {
	err := s.auth.SignOut(ctx)
	s.publish(s.bump(), nil, nil)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// Close stops following auth events and drops every subscriber.
func (s *SessionStore) Close() {
	s.mu.Lock()
	unsub := s.unsubAuth
	s.unsubAuth = nil
	s.subs = make(map[int]func(*models.Profile))
	s.gen++
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// SignUp registers an account and creates its profile. The user still has
// to sign in afterwards. A failed profile write is logged, not returned.
func (s *SessionStore) SignUp(ctx context.Context, email, password, fullName string, role models.Role) (string, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return "", &ValidationError{Field: "full_name", Msg: "Please enter your full name."}
	}
	if _, err := models.ParseRole(string(role)); err != nil {
		return "", &ValidationError{Field: "role", Msg: err.Error()}
	}

	id, err := s.auth.SignUp(ctx, email, password)
	if err != nil {
		return "", err
	}

	err = s.profiles.UpsertProfile(ctx, &models.Profile{
		ID:        id,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		FullName:  fullName,
		Role:      role,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		s.log.Error(ctx, "error creating profile", "user_id", id, "error", err)
	}
	return id, nil
}

// SignIn authenticates and returns the resulting profile, which may be nil
// when the profile could not be loaded.
func (s *SessionStore) SignIn(ctx context.Context, email, password string) (*models.Profile, error) {
	if _, err := s.auth.SignIn(ctx, email, password); err != nil {
		return nil, err
	}
	return s.Current(), nil
}

// UpdateProfile changes the signed-in user's own profile.
func (s *SessionStore) UpdateProfile(ctx context.Context, fullName, avatarURL string) (*models.Profile, error) {
	s.mu.RLock()
	sess := s.session
	s.mu.RUnlock()
	if sess == nil {
		return nil, ErrLoginRequired
	}

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, &ValidationError{Field: "full_name", Msg: "Please enter your full name."}
	}

	p, err := s.profiles.UpdateProfile(ctx, sess.UserID, models.ProfileUpdate{
		FullName:  fullName,
		AvatarURL: strings.TrimSpace(avatarURL),
	})
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.mu.RLock()
	g := s.gen
	s.mu.RUnlock()
	s.publish(g, sess, p)
	return p, nil
}
