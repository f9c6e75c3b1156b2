package mirror

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrMirrorUnavailable is returned while the breaker is open and mirror
// calls are being rejected without touching the backend.
var ErrMirrorUnavailable = errors.New("mirror backend unavailable")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker shields the mirror backend: after maxFailures consecutive
// failures calls are rejected until the cooldown elapses, then a single
// probe decides whether to close again. The local order flow never waits
// on an unhealthy mirror.
type Breaker struct {
	mu          sync.Mutex
	maxFailures int
	cooldown    time.Duration
	state       breakerState
	failures    int
	lastFailure time.Time
	logger      *logrus.Logger
}

func NewBreaker(maxFailures int, cooldown time.Duration, logger *logrus.Logger) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		logger:      logger,
	}
}

func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	if b.state == stateOpen {
		if time.Since(b.lastFailure) < b.cooldown {
			b.mu.Unlock()
			return ErrMirrorUnavailable
		}
		b.setState(stateHalfOpen)
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		b.lastFailure = time.Now()
		if b.state == stateHalfOpen || b.failures >= b.maxFailures {
			b.setState(stateOpen)
		}
		return err
	}

	b.failures = 0
	if b.state != stateClosed {
		b.setState(stateClosed)
	}
	return nil
}

func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.String()
}

func (b *Breaker) setState(next breakerState) {
	if b.state == next {
		return
	}
	b.logger.WithFields(logrus.Fields{
		"from_state": b.state.String(),
		"to_state":   next.String(),
	}).Info("Mirror breaker state changed")
	b.state = next
}
