package yield

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config holds local host configuration.
type Config struct {
	// Horizon is the host-defined deadline after which an unresumed
	// continuation is delivered as a timeout.
	Horizon time.Duration

	// Timers is swappable for tests; defaults to system timers.
	Timers TimerFactory
}

// DefaultConfig returns sensible local-host defaults.
func DefaultConfig() Config {
	return Config{
		Horizon: 5 * time.Minute,
		Timers:  SystemTimerFactory{},
	}
}

type pending struct {
	callback string
	payload  []byte
	timer    Timer
}

// LocalHost is the in-process Host implementation. It keeps one entry per
// outstanding continuation and guarantees exactly-once delivery: the first
// of Resume or the horizon timer wins, the loser is rejected or ignored.
type LocalHost struct {
	cfg Config
	log zerolog.Logger

	mu        sync.Mutex
	callbacks map[string]Callback
	pending   map[Token]*pending
}

// NewLocalHost creates a local continuation host.
func NewLocalHost(cfg Config, log zerolog.Logger) *LocalHost {
	if cfg.Timers == nil {
		cfg.Timers = SystemTimerFactory{}
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = DefaultConfig().Horizon
	}
	return &LocalHost{
		cfg:       cfg,
		log:       log.With().Str("component", "yield-host").Logger(),
		callbacks: make(map[string]Callback),
		pending:   make(map[Token]*pending),
	}
}

// RegisterCallback installs the function invoked when continuations created
// under name resolve. Must be called before Create references the name.
func (h *LocalHost) RegisterCallback(name string, fn Callback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callbacks[name] = fn
}

// Create registers a pending continuation and arms the horizon timer.
func (h *LocalHost) Create(callback string, payload []byte) (Token, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.callbacks[callback]; !ok {
		return "", ErrUnknownCallback
	}

	token := Token(uuid.NewString())
	p := &pending{callback: callback, payload: payload}
	p.timer = h.cfg.Timers.AfterFunc(h.cfg.Horizon, func() {
		h.expire(token)
	})
	h.pending[token] = p

	h.log.Debug().
		Str("token", string(token)).
		Str("callback", callback).
		Dur("horizon", h.cfg.Horizon).
		Msg("Continuation created")

	return token, nil
}

// Resume resolves the continuation addressed by token. Delivery to the
// callback happens asynchronously, the way a real host schedules receipts.
func (h *LocalHost) Resume(token Token, result []byte) error {
	h.mu.Lock()
	p, ok := h.pending[token]
	if !ok {
		h.mu.Unlock()
		return ErrTokenResolved
	}
	delete(h.pending, token)
	h.mu.Unlock()

	p.timer.Stop()

	h.log.Debug().
		Str("token", string(token)).
		Int("result_bytes", len(result)).
		Msg("Continuation resumed")

	go h.deliver(token, p, result, nil)
	return nil
}

// expire delivers the timeout signal if the continuation is still pending.
func (h *LocalHost) expire(token Token) {
	h.mu.Lock()
	p, ok := h.pending[token]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.pending, token)
	h.mu.Unlock()

	h.log.Warn().
		Str("token", string(token)).
		Msg("Continuation timed out")

	h.deliver(token, p, nil, ErrTimedOut)
}

func (h *LocalHost) deliver(token Token, p *pending, result []byte, err error) {
	h.mu.Lock()
	fn := h.callbacks[p.callback]
	h.mu.Unlock()

	if fn == nil {
		h.log.Error().Str("callback", p.callback).Msg("Callback vanished before delivery")
		return
	}

	if cbErr := fn(token, p.payload, result, err); cbErr != nil {
		// The delivering execution failed; the host records it as such
		// and moves on. No retry.
		h.log.Warn().Err(cbErr).Str("callback", p.callback).Msg("Callback reported failure")
	}
}

// PendingCount reports outstanding continuations.
func (h *LocalHost) PendingCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// Stop cancels all horizon timers. Pending continuations are dropped
// without delivery; intended for process shutdown only.
func (h *LocalHost) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for token, p := range h.pending {
		p.timer.Stop()
		delete(h.pending, token)
	}
}
