package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/urbannest/internal/client/gateway"
	"github.com/dmitrijs2005/urbannest/internal/logging"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

var ErrRateLimited = fmt.Errorf("too many assistant requests: %w", gateway.ErrUnavailable)

type GuardSettings struct {
	// PerMinute caps calls; zero disables the limit.
	PerMinute   int
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Guarded protects a generator with a rate limiter and a circuit breaker.
// Requests over the limit and requests while the breaker is open fail fast
// with an error wrapping gateway.ErrUnavailable.
type Guarded struct {
	next    gateway.TextGenerator
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

var _ gateway.TextGenerator = (*Guarded)(nil)

func NewGuarded(next gateway.TextGenerator, s GuardSettings, log logging.Logger) *Guarded {
	log = logging.OrNop(log)
	if s.MaxFailures == 0 {
		s.MaxFailures = 3
	}

	st := gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Info(context.Background(), "circuit breaker state", "name", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// A disabled generator or a cancelled caller says nothing about
			// the endpoint's health.
			return err == nil || errors.Is(err, gateway.ErrUnavailable) || errors.Is(err, context.Canceled)
		},
	}

	var limiter *rate.Limiter
	if s.PerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.PerMinute)), s.PerMinute)
	}

	return &Guarded{next: next, cb: gobreaker.NewCircuitBreaker(st), limiter: limiter}
}

func (g *Guarded) Generate(ctx context.Context, prompt string) (string, error) {
	if g.limiter != nil && !g.limiter.Allow() {
		return "", ErrRateLimited
	}

	res, err := g.cb.Execute(func() (interface{}, error) {
		return g.next.Generate(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %w", gateway.ErrUnavailable, err)
		}
		return "", err
	}
	return res.(string), nil
}

func (g *Guarded) State() gobreaker.State {
	return g.cb.State()
}
