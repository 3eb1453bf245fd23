// Package auth is the authentication collaborator of the client: password
// accounts with bcrypt hashes, HS256 session tokens and a session persisted
// in the local metadata store so it survives restarts.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/urbannest/internal/common"
	"github.com/dmitrijs2005/urbannest/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var _ gateway.Auth = (*Provider)(nil)

// LocalStore runs fn against the local metadata repository in a transaction.
type LocalStore interface {
	InTx(ctx context.Context, fn func(ctx context.Context, md metadata.Repository) error) error
}

type Config struct {
	Secret     []byte
	SessionTTL time.Duration
}

type Provider struct {
	accounts gateway.Accounts
	local    LocalStore
	cfg      Config
	log      logging.Logger
	now      func() time.Time

	mu     sync.Mutex
	nextID int
	subs   map[int]func(models.AuthEvent)
}

func NewProvider(accounts gateway.Accounts, local LocalStore, cfg Config, log logging.Logger) *Provider {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	return &Provider{
		accounts: accounts,
		local:    local,
		cfg:      cfg,
		log:      logging.OrNop(log),
		now:      time.Now,
		subs:     make(map[int]func(models.AuthEvent)),
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", common.ErrInvalidEmailFormat
	}
	return email, nil
}

// SignUp creates the credential record and returns the new user id. It does
// not sign the user in.
func (p *Provider) SignUp(ctx context.Context, email, password string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}
	if len(password) < common.MinPasswordLength {
		return "", common.ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	acc, err := p.accounts.CreateAccount(ctx, &models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, gateway.ErrConflict) {
			return "", common.ErrEmailAlreadyExists
		}
		return "", fmt.Errorf("create account: %w", err)
	}
	return acc.ID, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, common.ErrInvalidCredentials
	}

	acc, err := p.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	now := p.now()
	token, err := GenerateToken(acc.ID, acc.Email, p.cfg.Secret, now, p.cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	err = p.local.InTx(ctx, func(ctx context.Context, md metadata.Repository) error {
		if err := md.Set(ctx, common.MetadataAccessToken, []byte(token)); err != nil {
			return err
		}
		return md.Set(ctx, common.MetadataUserEmail, []byte(acc.Email))
	})
	if err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	s := &models.Session{
		UserID:      acc.ID,
		Email:       acc.Email,
		AccessToken: token,
		ExpiresAt:   now.Add(p.cfg.SessionTTL),
	}
	p.notify(models.AuthEvent{Kind: models.AuthSignedIn, Session: s})
	return s, nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	err := p.local.InTx(ctx, func(ctx context.Context, md metadata.Repository) error {
		return md.Delete(ctx, common.MetadataAccessToken, common.MetadataUserEmail)
	})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	p.notify(models.AuthEvent{Kind: models.AuthSignedOut})
	return nil
}

// CurrentSession restores the persisted session. A stale or tampered token
// is wiped and reported as no session.
func (p *Provider) CurrentSession(ctx context.Context) (*models.Session, error) {
	var token []byte
	err := p.local.InTx(ctx, func(ctx context.Context, md metadata.Repository) error {
		var err error
		token, err = md.Get(ctx, common.MetadataAccessToken)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if token == nil {
		return nil, nil
	}

	claims, err := ParseToken(string(token), p.cfg.Secret, p.now())
	if err != nil {
		p.log.Info(ctx, "discarding persisted session", "reason", err)
		derr := p.local.InTx(ctx, func(ctx context.Context, md metadata.Repository) error {
			return md.Delete(ctx, common.MetadataAccessToken, common.MetadataUserEmail)
		})
		if derr != nil {
			p.log.Warn(ctx, "failed to clear persisted session", "error", derr)
		}
		return nil, nil
	}

	return &models.Session{
		UserID:      claims.UserID,
		Email:       claims.Email,
		AccessToken: string(token),
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// Subscribe registers fn for auth events. Events are delivered
// synchronously, in registration order, on the goroutine that caused them.
func (p *Provider) Subscribe(fn func(models.AuthEvent)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) notify(ev models.AuthEvent) {
	p.mu.Lock()
	ids := make([]int, 0, len(p.subs))
	for id := range p.subs {
		ids = append(ids, id)
	}
	fns := make([]func(models.AuthEvent), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, p.subs[id])
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
