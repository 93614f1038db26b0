package shop

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/kastkar/krushi/internal/domain/cart"
)

// SessionTTL is how long an untouched cart session stays in memory. Its
// recently viewed list survives in the repository.
const SessionTTL = 7 * 24 * time.Hour

// ErrNoSession is returned when a cart operation names no session.
var ErrNoSession = errors.New("cart session id is required")

// session is one client's cart and recently viewed list.
type session struct {
	cart   *cart.Cart
	recent []int64
	seen   time.Time
}

// session returns the session for id, creating it and loading its recent
// list on first use. The write lock must be held.
func (s *Service) session(ctx context.Context, id string) (*session, error) {
	if id == "" {
		return nil, ErrNoSession
	}
	now := s.now()
	if sess, ok := s.sessions[id]; ok {
		sess.seen = now
		return sess, nil
	}

	s.pruneSessions(now)
	sess := &session{cart: cart.New(), seen: now}
	recent, err := s.repo.LoadRecent(ctx, id)
	switch {
	case errors.Is(err, ErrNoSnapshot):
	case err != nil:
		zctx.From(ctx).Warn("Load recently viewed", zap.String("session", id), zap.Error(err))
	default:
		sess.recent = recent
	}
	s.sessions[id] = sess
	s.metrics.Sessions(len(s.sessions))
	return sess, nil
}

// pruneSessions drops sessions idle for longer than SessionTTL.
func (s *Service) pruneSessions(now time.Time) {
	for id, sess := range s.sessions {
		if now.Sub(sess.seen) > SessionTTL {
			delete(s.sessions, id)
		}
	}
}

// eachCart calls fn for every live cart. The write lock must be held.
func (s *Service) eachCart(fn func(c *cart.Cart)) {
	for _, sess := range s.sessions {
		fn(sess.cart)
	}
}
