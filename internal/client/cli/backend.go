package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/urbannest/internal/client/config"
	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/client/gateway/memory"
	"github.com/dmitrijs2005/urbannest/internal/client/gateway/postgres"
	"github.com/dmitrijs2005/urbannest/internal/client/gateway/s3store"
	"github.com/dmitrijs2005/urbannest/internal/logging"
)

// backend bundles the remote collaborators of the app.
type backend struct {
	store    gateway.Store
	accounts gateway.Accounts
	files    gateway.FileStore
	feed     gateway.Realtime
	close    func() error
}

// openBackend is a seam so tests can run the app without a database.
var openBackend = func(ctx context.Context, cfg *config.Config, log logging.Logger) (*backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		b := memory.New()
		return &backend{store: b, accounts: b, files: b, feed: b, close: func() error { return nil }}, nil

	case config.BackendPostgres:
		m, err := postgres.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		files, err := s3store.New(ctx, s3store.Config{
			Region:     cfg.S3Region,
			User:       cfg.S3User,
			Password:   cfg.S3Password,
			Bucket:     cfg.S3Bucket,
			Endpoint:   cfg.S3Endpoint,
			PublicBase: cfg.S3PublicBase,
		})
		if err != nil {
			m.Close()
			return nil, err
		}
		return &backend{
			store:    m,
			accounts: m,
			files:    files,
			feed:     postgres.NewListener(cfg.DatabaseDSN, log),
			close:    m.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
