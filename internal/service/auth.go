package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/networth-bfa-go/internal/domain"
	"github.com/boddenberg/networth-bfa-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

// AuthService issues and validates the bearer tokens that identify a
// user on every API call and on the chat websocket.
type AuthService struct {
	store     port.AuthStore
	jwtSecret []byte
	accessTTL time.Duration
	logger    *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(store port.AuthStore, jwtSecret string, accessTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		accessTTL: accessTTL,
		logger:    logger,
	}
}

// LoginResponse carries the issued token back to the client.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int          `json:"expires_in"`
	User        *domain.User `json:"user"`
}

// Login verifies email+password and returns a signed access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	if email == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "required"}
	}
	if password == "" {
		return nil, &domain.ErrValidation{Field: "password", Message: "required"}
	}

	user, passwordHash, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		s.logger.Warn("login: password mismatch", zap.String("user_id", user.ID))
		return nil, &domain.ErrUnauthorized{Message: "invalid credentials"}
	}

	token, err := s.signAccessToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return &LoginResponse{
		AccessToken: token,
		ExpiresIn:   int(s.accessTTL.Seconds()),
		User:        user,
	}, nil
}

// JWTClaims represents the custom claims in access tokens.
type JWTClaims struct {
	Sub  string `json:"sub"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

func (s *AuthService) signAccessToken(userID string) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		Sub:  userID,
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    "networth-bfa",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// ValidateAccessToken parses a bearer token and returns a stable user
// identifier. Used by the HTTP middleware and the websocket handshake.
func (s *AuthService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "invalid token claims"}
	}
	return claims, nil
}
