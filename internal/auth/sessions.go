package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type session struct {
	user    string
	expires time.Time
}

// Sessions guarda tokens opacos en memoria. Un reinicio invalida todas las sesiones.
type Sessions struct {
	mu     sync.Mutex
	ttl    time.Duration
	tokens map[string]session
	now    func() time.Time
}

func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Sessions{
		ttl:    ttl,
		tokens: make(map[string]session),
		now:    time.Now,
	}
}

func (s *Sessions) Issue(user string) (string, time.Time) {
	token := uuid.NewString()
	expires := s.now().Add(s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	s.tokens[token] = session{user: user, expires: expires}
	return token, expires
}

// Validate devuelve el usuario dueño del token si sigue vigente.
func (s *Sessions) Validate(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.tokens[token]
	if !ok {
		return "", false
	}
	if !s.now().Before(sess.expires) {
		delete(s.tokens, token)
		return "", false
	}
	return sess.user, true
}

func (s *Sessions) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// prune descarta sesiones vencidas; se llama con mu tomado.
func (s *Sessions) prune() {
	now := s.now()
	for token, sess := range s.tokens {
		if !now.Before(sess.expires) {
			delete(s.tokens, token)
		}
	}
}
