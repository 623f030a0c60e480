package aisle

import "sync"

// Session tracks the health of remote lookups for one grocery-list session.
// Once tripped, the classifier stops calling the remote service and relies on
// the override table alone.
type Session struct {
	mu                  sync.Mutex
	failureThreshold    int
	consecutiveFailures int
	open                bool
	rateLimited         bool
	noticePending       bool
}

// NewSession returns a closed breaker that opens after failureThreshold consecutive failures.
func NewSession(failureThreshold int) *Session {
	if failureThreshold <= 0 {
		failureThreshold = 3
	}
	return &Session{failureThreshold: failureThreshold}
}

// Allow reports whether a remote lookup may be attempted.
func (s *Session) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.open
}

// RecordSuccess resets the consecutive failure count.
func (s *Session) RecordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveFailures = 0
}

// RecordFailure counts a failed lookup and opens the breaker at the threshold.
func (s *Session) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consecutiveFailures++
	if s.consecutiveFailures >= s.failureThreshold {
		s.trip()
	}
}

// RecordRateLimited opens the breaker immediately.
func (s *Session) RecordRateLimited() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateLimited = true
	s.trip()
}

// Exhaust opens the breaker when the lookup time budget has run out.
func (s *Session) Exhaust() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trip()
}

func (s *Session) trip() {
	if s.open {
		return
	}
	s.open = true
	s.noticePending = true
}

// RateLimited reports whether the remote service answered 429 during this session.
func (s *Session) RateLimited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rateLimited
}

// TakeNotice returns true exactly once after the breaker opens.
func (s *Session) TakeNotice() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.noticePending
	s.noticePending = false
	return pending
}
