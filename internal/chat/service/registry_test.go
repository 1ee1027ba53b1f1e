package service_test

import (
	"context"
	"testing"
	"time"

	chatservice "github.com/boddenberg/networth-bfa-go/internal/chat/service"
	maindomain "github.com/boddenberg/networth-bfa-go/internal/domain"
	"github.com/boddenberg/networth-bfa-go/internal/infra/cache"
)

func TestCreateOrResume_ReusesLiveSession(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	users := &mockUsers{user: &maindomain.User{ID: "u1", AvailableAITokens: 1000}}
	contexts := &mockContexts{aiCtx: freshContext(now.AddDate(0, 0, -10))}
	deps := testDeps(&mockCompletion{}, contexts, users, now)

	registry := chatservice.NewRegistry(cache.New[*chatservice.Session](time.Hour), deps, deps.Logger)

	first, err := registry.CreateOrResume(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := registry.CreateOrResume(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if first != second {
		t.Error("expected a reconnect within the TTL to resume the same session")
	}
}

func TestCreateOrResume_NewSessionAfterExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	users := &mockUsers{user: &maindomain.User{ID: "u1", AvailableAITokens: 1000}}
	contexts := &mockContexts{aiCtx: freshContext(now.AddDate(0, 0, -10))}
	deps := testDeps(&mockCompletion{}, contexts, users, now)

	registry := chatservice.NewRegistry(cache.New[*chatservice.Session](20*time.Millisecond), deps, deps.Logger)

	first, err := registry.CreateOrResume(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	time.Sleep(40 * time.Millisecond)

	second, err := registry.CreateOrResume(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if first == second {
		t.Error("expected a fresh session after the TTL elapsed")
	}
}

func TestEvict(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	users := &mockUsers{user: &maindomain.User{ID: "u1", AvailableAITokens: 1000}}
	contexts := &mockContexts{aiCtx: freshContext(now.AddDate(0, 0, -10))}
	deps := testDeps(&mockCompletion{}, contexts, users, now)

	registry := chatservice.NewRegistry(cache.New[*chatservice.Session](time.Hour), deps, deps.Logger)

	first, _ := registry.CreateOrResume(context.Background(), "u1")
	registry.Evict("u1")
	second, _ := registry.CreateOrResume(context.Background(), "u1")

	if first == second {
		t.Error("expected a fresh session after eviction")
	}
}
