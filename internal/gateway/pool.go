package gateway

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Session is a single broker connection capable of logging in/out and
// subscribing/unsubscribing a tick or book stream for one code. Concrete
// implementations wrap a broker's FIX session or native SDK client.
type Session interface {
	Login() error
	Logout() error
	SubscribeTick(code string, asset string) error
	SubscribeBook(code string, asset string) error
	UnsubscribeTick(code string, asset string) error
	UnsubscribeBook(code string, asset string) error
}

// ConnectionPool manages a fixed set of broker sessions used to spread
// subscription load across sessions.
type ConnectionPool struct {
	sessions      []Session
	logger        *zap.Logger
	loggedInCount int
}

func NewConnectionPool(sessions []Session, logger *zap.Logger) *ConnectionPool {
	return &ConnectionPool{sessions: sessions, logger: logger}
}

// LoginAll logs each session in sequentially with a random inter-login
// jitter, to avoid the broker's login rate limit. A failed session is
// logged and skipped; the remaining sessions still proceed.
func (p *ConnectionPool) LoginAll(jitterMin, jitterMax time.Duration) {
	total := len(p.sessions)
	for i, s := range p.sessions {
		if err := s.Login(); err != nil {
			if p.logger != nil {
				p.logger.Error("gateway: session login failed", zap.Int("session", i), zap.Int("total", total), zap.Error(err))
			}
			continue
		}
		p.loggedInCount++
		if p.logger != nil {
			p.logger.Info("gateway: session logged in", zap.Int("session", i+1), zap.Int("total", total))
		}
		if i < total-1 && jitterMax > 0 {
			delay := jitterMin + time.Duration(rand.Int63n(int64(jitterMax-jitterMin)+1))
			time.Sleep(delay)
		}
	}
}

// LogoutAll logs out every session, swallowing individual failures.
func (p *ConnectionPool) LogoutAll() {
	for _, s := range p.sessions {
		_ = s.Logout()
	}
	p.loggedInCount = 0
}

// GetSession returns the session at index mod pool size.
func (p *ConnectionPool) GetSession(index int) (Session, error) {
	if len(p.sessions) == 0 {
		return nil, fmt.Errorf("gateway: connection pool is empty")
	}
	return p.sessions[index%len(p.sessions)], nil
}

func (p *ConnectionPool) Size() int { return len(p.sessions) }

func (p *ConnectionPool) LoggedInCount() int { return p.loggedInCount }
