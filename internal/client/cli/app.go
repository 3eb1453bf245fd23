package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/urbannest/internal/client/auth"
	"github.com/dmitrijs2005/urbannest/internal/client/config"
	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/gateway/gemini"
	"github.com/dmitrijs2005/urbannest/internal/client/localdb"
	"github.com/dmitrijs2005/urbannest/internal/client/models"
	"github.com/dmitrijs2005/urbannest/internal/client/realtime"
	"github.com/dmitrijs2005/urbannest/internal/client/services"
	"github.com/dmitrijs2005/urbannest/internal/logging"
)

// Deps are the collaborators App is assembled from.
type Deps struct {
	Store     gateway.Store
	Files     gateway.FileStore
	Auth      gateway.Auth
	Feed      gateway.Realtime
	Generator gateway.TextGenerator
	Log       logging.Logger
}

type App struct {
	log       logging.Logger
	store     gateway.Store
	sessions  *services.SessionStore
	hub       *realtime.Hub
	listings  *services.ListingCollection
	inbox     *services.Inbox
	publisher *services.Publisher
	assistant *services.Assistant
	reader    *bufio.Reader
	out       io.Writer
	closers   []func() error

	ctx context.Context

	unsubNotify func()

	mu        sync.Mutex
	bookmarks *services.BookmarkState
	chat      *services.ConversationStream
	unsubChat func()
	printed   int
}

// NewApp wires the configured backend, the local store and the services.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	log = logging.OrNop(log)

	local, err := localdb.Open(ctx, cfg.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		local.Close()
		return nil, fmt.Errorf("open backend: %w", err)
	}

	gen, err := gemini.New(ctx, cfg.GenAIKey, cfg.GenAIModel)
	if err != nil {
		be.close()
		local.Close()
		return nil, err
	}
	if !gen.Enabled() {
		log.Info(ctx, "assistant disabled, no api key configured")
	}

	provider := auth.NewProvider(be.accounts, local, auth.Config{
		Secret:     []byte(cfg.JWTSecret),
		SessionTTL: cfg.SessionTTL,
	}, log)

	a := newApp(Deps{
		Store: be.store,
		Files: be.files,
		Auth:  provider,
		Feed:  be.feed,
		Generator: gemini.NewGuarded(gen, gemini.GuardSettings{
			PerMinute:   cfg.AssistantPerMinute,
			MaxFailures: cfg.BreakerMaxFailures,
			OpenTimeout: cfg.BreakerOpenTimeout,
		}, log),
		Log: log,
	}, bufio.NewReader(os.Stdin), os.Stdout)
	a.closers = append(a.closers, be.close, local.Close)
	return a, nil
}

func newApp(d Deps, reader *bufio.Reader, out io.Writer) *App {
	log := logging.OrNop(d.Log)
	assistant := services.NewAssistant(d.Generator, log)
	return &App{
		log:       log,
		store:     d.Store,
		sessions:  services.NewSessionStore(d.Auth, d.Store, log),
		hub:       realtime.NewHub(d.Feed, log),
		listings:  services.NewListingCollection(d.Store, log),
		inbox:     services.NewInbox(d.Store, d.Store, d.Store, log),
		publisher: services.NewPublisher(d.Store, d.Files, assistant, log),
		assistant: assistant,
		reader:    reader,
		out:       out,
		ctx:       context.Background(),
		bookmarks: services.NewBookmarkState(d.Store, "", log),
	}
}

// Start restores the session and opens the realtime feed. A feed failure
// only disables live chat updates.
func (a *App) Start(ctx context.Context) error {
	a.ctx = ctx
	a.sessions.Subscribe(a.onProfile)
	if err := a.sessions.Start(ctx); err != nil {
		a.log.Warn(ctx, "session restore failed", "error", err)
	}
	if err := a.hub.Start(ctx); err != nil {
		a.log.Warn(ctx, "realtime feed unavailable", "error", err)
	}
	if a.unsubNotify == nil {
		a.unsubNotify = a.hub.RegisterAny(a.onIncoming)
	}
	return nil
}

// Run starts the app, blocks in the REPL until the user exits and then
// releases every resource.
func (a *App) Run(ctx context.Context) {
	defer a.Close()
	_ = a.Start(ctx)

	printlnFn("Welcome to UrbanNest CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

// Close tears everything down in reverse order of construction.
func (a *App) Close() {
	if a.unsubNotify != nil {
		a.unsubNotify()
		a.unsubNotify = nil
	}
	a.closeChat()
	a.hub.Stop()
	a.sessions.Close()
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.Warn(context.Background(), "close failed", "error", err)
		}
	}
	a.closers = nil
}

// onProfile rebinds the per-user state whenever the session changes.
func (a *App) onProfile(p *models.Profile) {
	a.closeChat()

	userID := ""
	if p != nil {
		userID = p.ID
	}
	b := services.NewBookmarkState(a.store, userID, a.log)
	b.Load(a.ctx)

	a.mu.Lock()
	a.bookmarks = b
	a.mu.Unlock()
}

func (a *App) currentBookmarks() *services.BookmarkState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bookmarks
}

func (a *App) isLoggedIn() bool {
	return a.sessions.Current() != nil
}

func (a *App) getStatus() string {
	p := a.sessions.Current()
	if p == nil {
		return ""
	}
	name := p.FullName
	if name == "" {
		name = p.Email
	}
	return fmt.Sprintf("(%s %s)", name, p.Role)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
