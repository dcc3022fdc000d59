package handler

import (
	"context"

	"github.com/attaboy/faketoto/internal/domain"
)

// Limiter rate-limits bet placement per session.
type Limiter interface {
	Check(ctx context.Context, key string) domain.GuardResult
}

func allowBet(ctx context.Context, l Limiter, sessionID string) error {
	if l == nil {
		return nil
	}
	if res := l.Check(ctx, sessionID); !res.Allowed {
		return domain.ErrRateLimited(res.Reason)
	}
	return nil
}

// sessionForgetter is implemented by limiters that hold per-session windows.
type sessionForgetter interface {
	Forget(key string)
}

func forgetSession(l Limiter, sessionID string) {
	if f, ok := l.(sessionForgetter); ok {
		f.Forget(sessionID)
	}
}
