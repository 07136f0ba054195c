package client

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/artpar/pgstay/internal/core/domain"
	"github.com/artpar/pgstay/internal/core/state"
)

// ErrNotSignedIn is returned by operations that need a session when none is held.
var ErrNotSignedIn = errors.New("not signed in")

// SessionStore holds the signed-in session.
type SessionStore = state.Store[domain.Session, domain.SessionPatch]

// AuthService keeps the client's session. Every change to the session is
// published through its store, and the client's bearer token follows it.
type AuthService struct {
	client  *Client
	session *SessionStore
	logger  *slog.Logger
}

// NewAuthService creates an auth service with an empty session.
func NewAuthService(c *Client, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AuthService{
		client:  c,
		session: state.New(domain.MergeSession),
		logger:  logger.With("component", "auth_service"),
	}
	s.session.Subscribe(func(session domain.Session, present bool) {
		if present {
			c.SetToken(session.Token)
		} else {
			c.SetToken("")
		}
	})
	return s
}

// Session returns the held session, if any.
func (s *AuthService) Session() (domain.Session, bool) {
	return s.session.Get()
}

// Subscribe registers fn for every session change.
func (s *AuthService) Subscribe(fn state.Listener[domain.Session]) (unsubscribe func()) {
	return s.session.Subscribe(fn)
}

// Restore installs a previously saved session.
func (s *AuthService) Restore(session domain.Session) {
	s.session.Set(session)
}

// Register creates an account and signs in with it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.Session, error) {
	session, err := s.client.Register(ctx, in)
	if err != nil {
		return domain.Session{}, err
	}
	s.session.Set(session)
	return session, nil
}

// Login signs in and replaces any held session.
func (s *AuthService) Login(ctx context.Context, phoneNumber, password string) (domain.Session, error) {
	session, err := s.client.Login(ctx, phoneNumber, password)
	if err != nil {
		return domain.Session{}, err
	}
	s.session.Set(session)
	s.logger.Debug("signed in", "user_id", session.User.ID)
	return session, nil
}

// Refresh re-reads the signed-in user and patches it into the session.
// A token the server no longer accepts drops the session.
func (s *AuthService) Refresh(ctx context.Context) (domain.User, error) {
	if _, ok := s.session.Get(); !ok {
		return domain.User{}, ErrNotSignedIn
	}

	user, err := s.client.Me(ctx)
	if err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			s.session.Clear()
		}
		return domain.User{}, err
	}

	s.session.Update(domain.SessionPatch{User: &user})
	return user, nil
}

// Logout signs out. The server call is best effort: if it fails the error
// is logged and the local session is cleared anyway.
func (s *AuthService) Logout(ctx context.Context) {
	if _, ok := s.session.Get(); ok {
		if err := s.client.Logout(ctx); err != nil {
			s.logger.Warn("server logout failed, clearing local session", "error", err)
		}
	}
	s.session.Clear()
}
