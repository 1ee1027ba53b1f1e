package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/networth-bfa-go/internal/domain"
	"github.com/boddenberg/networth-bfa-go/internal/service"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type mockAuthStore struct {
	user *domain.User
	hash string
	err  error
}

func (m *mockAuthStore) GetUserByEmail(_ context.Context, _ string) (*domain.User, string, error) {
	return m.user, m.hash, m.err
}

func TestLogin_Success(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	store := &mockAuthStore{user: &domain.User{ID: "u1", Email: "a@b.c"}, hash: string(hash)}
	svc := service.NewAuthService(store, "test-secret", time.Hour, zap.NewNop())

	resp, err := svc.Login(context.Background(), "a@b.c", "s3cret")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected access token")
	}

	claims, err := svc.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("expected issued token to validate, got %v", err)
	}
	if claims.Sub != "u1" {
		t.Errorf("expected subject u1, got %q", claims.Sub)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	store := &mockAuthStore{user: &domain.User{ID: "u1"}, hash: string(hash)}
	svc := service.NewAuthService(store, "test-secret", time.Hour, zap.NewNop())

	_, err := svc.Login(context.Background(), "a@b.c", "wrong")
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := service.NewAuthService(&mockAuthStore{}, "test-secret", time.Hour, zap.NewNop())

	_, err := svc.Login(context.Background(), "nobody@b.c", "pw")
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	svc := service.NewAuthService(&mockAuthStore{}, "test-secret", time.Hour, zap.NewNop())

	if _, err := svc.ValidateAccessToken("not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	store := &mockAuthStore{user: &domain.User{ID: "u1"}, hash: string(hash)}

	issuer := service.NewAuthService(store, "secret-a", time.Hour, zap.NewNop())
	verifier := service.NewAuthService(store, "secret-b", time.Hour, zap.NewNop())

	resp, err := issuer.Login(context.Background(), "a@b.c", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := verifier.ValidateAccessToken(resp.AccessToken); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}
}
