package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/consoleauth/internal/console/domain"
	"github.com/aussiebroadwan/consoleauth/pkg/authsdk"
)

const (
	DefaultRefreshLead         = 60 * time.Second
	DefaultRefreshRetryBackoff = 30 * time.Second
)

// RefreshFunc trades a refresh token for a new token pair.
type RefreshFunc func(ctx context.Context, refreshToken string) (*authsdk.TokenResponse, error)

// RefreshScheduler keeps at most one pending refresh for the current
// credential pair. Every Arm and Disarm bumps a generation counter; a timer
// or an in-flight refresh belonging to an older generation is dropped
// instead of reporting back.
//
// Callbacks never run on the goroutine that called Arm, so callers may hold
// their own locks while arming.
type RefreshScheduler struct {
	Refresh RefreshFunc
	Clock   Clock
	Logger  *slog.Logger
	Metrics *Metrics

	// LeadTime is how long before expiry the refresh fires.
	LeadTime time.Duration
	// RetryBackoff is the wait before the single retry after a transport
	// failure.
	RetryBackoff time.Duration
	// StillAuthenticated gates the retry. Nil means always.
	StillAuthenticated func() bool

	mu     sync.Mutex
	gen    uint64
	timer  Timer
	cancel context.CancelFunc
	armed  bool
	nextAt *time.Time
}

func NewRefreshScheduler(refresh RefreshFunc, clock Clock, logger *slog.Logger) *RefreshScheduler {
	if clock == nil {
		clock = SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshScheduler{
		Refresh:      refresh,
		Clock:        clock,
		Logger:       logger,
		LeadTime:     DefaultRefreshLead,
		RetryBackoff: DefaultRefreshRetryBackoff,
	}
}

type refreshRun struct {
	gen         uint64
	token       string
	ctx         context.Context
	onRefreshed func(access, refresh string)
	onFailed    func(error)
}

// Arm cancels any pending refresh and schedules one for pair. A pair with an
// unknown expiry, or one that expires within LeadTime, is refreshed right
// away.
func (s *RefreshScheduler) Arm(pair domain.CredentialPair, onRefreshed func(access, refresh string), onFailed func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disarmLocked()

	ctx, cancel := context.WithCancel(context.Background())
	run := &refreshRun{
		gen:         s.gen,
		token:       pair.RefreshToken,
		ctx:         ctx,
		onRefreshed: onRefreshed,
		onFailed:    onFailed,
	}
	s.cancel = cancel
	s.armed = true

	now := s.Clock.Now()
	if pair.ExpiresAt == nil || pair.ExpiresAt.Sub(now) <= s.LeadTime {
		s.nextAt = &now
		s.Metrics.ObserveRefreshDelay(0)
		s.Logger.Debug("refreshing immediately", "expires_at", pair.ExpiresAt)
		go s.attempt(run, false)
		return
	}

	delay := pair.ExpiresAt.Sub(now) - s.LeadTime
	at := now.Add(delay)
	s.nextAt = &at
	s.timer = s.Clock.AfterFunc(delay, func() { s.attempt(run, false) })
	s.Metrics.ObserveRefreshDelay(delay)
	s.Logger.Debug("refresh scheduled", "at", at, "delay", delay)
}

// Disarm cancels the pending refresh, if any.
func (s *RefreshScheduler) Disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked()
}

// Armed reports whether a refresh is pending or in flight.
func (s *RefreshScheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

// NextRefreshAt is the planned time of the pending refresh, or nil.
func (s *RefreshScheduler) NextRefreshAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nextAt == nil {
		return nil
	}
	at := *s.nextAt
	return &at
}

func (s *RefreshScheduler) disarmLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.armed = false
	s.nextAt = nil
}

func (s *RefreshScheduler) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

// settle ends the run if it is still current and reports whether it was.
func (s *RefreshScheduler) settle(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen {
		return false
	}
	s.timer = nil
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.armed = false
	s.nextAt = nil
	return true
}

func (s *RefreshScheduler) attempt(run *refreshRun, retried bool) {
	if run.token == "" {
		s.fail(run, "missing_token", exhausted(ErrMissingRefreshToken))
		return
	}
	if !s.current(run.gen) {
		return
	}

	resp, err := s.Refresh(run.ctx, run.token)
	if err == nil && (resp == nil || resp.AccessToken == "") {
		err = fmt.Errorf("%w: token response without access_token", ErrMalformedResponse)
	}

	if err == nil {
		if !s.settle(run.gen) {
			s.Logger.Debug("dropping refresh result for superseded credentials")
			return
		}
		s.Metrics.ObserveRefresh("success")
		run.onRefreshed(resp.AccessToken, resp.RefreshToken)
		return
	}

	if authsdk.IsTransport(err) && !retried && s.stillAuthenticated() {
		if s.scheduleRetry(run) {
			s.Metrics.ObserveRefresh("retry_scheduled")
			s.Logger.Warn("token refresh failed, retrying", "error", err, "backoff", s.RetryBackoff)
		}
		return
	}

	result := "error"
	switch KindOf(err) {
	case KindTransport:
		result = "transport_error"
	case KindRejection:
		result = "rejected"
	}
	s.fail(run, result, exhausted(err))
}

func (s *RefreshScheduler) scheduleRetry(run *refreshRun) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != run.gen {
		return false
	}
	at := s.Clock.Now().Add(s.RetryBackoff)
	s.nextAt = &at
	s.timer = s.Clock.AfterFunc(s.RetryBackoff, func() { s.attempt(run, true) })
	return true
}

func (s *RefreshScheduler) fail(run *refreshRun, result string, err error) {
	if !s.settle(run.gen) {
		return
	}
	s.Metrics.ObserveRefresh(result)
	s.Logger.Error("token refresh failed, session exhausted", "error", err)
	run.onFailed(err)
}

func (s *RefreshScheduler) stillAuthenticated() bool {
	if s.StillAuthenticated == nil {
		return true
	}
	return s.StillAuthenticated()
}
