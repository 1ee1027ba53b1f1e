// Package service — registry.go mantém as sessões vivas por usuário.
package service

import (
	"context"

	"github.com/boddenberg/networth-bfa-go/internal/port"

	"go.uber.org/zap"
)

// Registry mapeia user id → sessão viva. O cache injetado tem TTL
// deslizante: todo acesso renova a expiração. Sessão expirada some e a
// próxima conexão cria uma nova (histórico perdido — tradeoff aceito).
type Registry struct {
	sessions port.Cache[*Session]
	deps     SessionDeps
	logger   *zap.Logger
}

// NewRegistry creates the session registry over an injected cache so
// the store can be swapped (e.g. for a distributed cache) without
// touching session logic.
func NewRegistry(sessions port.Cache[*Session], deps SessionDeps, logger *zap.Logger) *Registry {
	return &Registry{
		sessions: sessions,
		deps:     deps,
		logger:   logger,
	}
}

// CreateOrResume devolve a sessão viva do usuário, renovando o TTL, ou
// constrói uma nova. Reconexões concorrentes: last-writer-wins.
func (r *Registry) CreateOrResume(ctx context.Context, userID string) (*Session, error) {
	if s, ok := r.sessions.Get(userID); ok {
		r.sessions.Touch(userID)
		r.deps.Metrics.IncrCacheHit("chat_session")
		return s, nil
	}
	r.deps.Metrics.IncrCacheMiss("chat_session")

	s, err := NewSession(ctx, userID, r.deps)
	if err != nil {
		return nil, err
	}
	r.sessions.Set(userID, s)
	return s, nil
}

// Evict descarta a sessão do usuário imediatamente.
func (r *Registry) Evict(userID string) {
	r.sessions.Delete(userID)
	r.logger.Debug("chat session evicted", zap.String("user_id", userID))
}
