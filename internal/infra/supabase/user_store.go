package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/boddenberg/networth-bfa-go/internal/domain"
	"github.com/boddenberg/networth-bfa-go/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Users — implements port.UserStore and port.AuthStore
// ============================================================

// supabaseUser maps the users table columns to our domain.
type supabaseUser struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	Currency           string `json:"currency"`
	PasswordHash       string `json:"password_hash,omitempty"`
	AvailableAITokens  int64  `json:"available_ai_tokens"`
	UsedAITotalTokens  int64  `json:"used_ai_total_tokens"`
	UsedAIPromptTokens int64  `json:"used_ai_prompt_tokens"`
}

func (u *supabaseUser) toDomain() *domain.User {
	return &domain.User{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		Currency:           u.Currency,
		AvailableAITokens:  u.AvailableAITokens,
		UsedAITotalTokens:  u.UsedAITotalTokens,
		UsedAIPromptTokens: u.UsedAIPromptTokens,
	}
}

// GetUser fetches a user record by id.
func (c *Client) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var user *domain.User

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("users?id=eq.%s&limit=1", userID)
			body, err := c.doGet(ctx, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "user", ID: userID}
			}

			var rows []supabaseUser
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("decode user: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "user", ID: userID}
			}

			user = rows[0].toDomain()
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/users", Err: err}
	}

	return user, nil
}

// UpdateUser applies a partial column update to a user row.
func (c *Client) UpdateUser(ctx context.Context, userID string, updates map[string]any) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	err := c.doPatch(ctx, fmt.Sprintf("users?id=eq.%s", userID), updates)
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/users", Err: err}
	}
	return nil
}

// GetUserByEmail resolves login credentials. Returns (nil, "", nil)
// when no user matches — the service layer decides how to reply.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*domain.User, string, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByEmail")
	defer span.End()

	path := fmt.Sprintf("users?email=eq.%s&limit=1", url.QueryEscape(email))
	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, "", &domain.ErrExternalService{Service: "supabase/users", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, "", nil
	}

	var rows []supabaseUser
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, "", fmt.Errorf("decode user: %w", err)
	}
	if len(rows) == 0 {
		return nil, "", nil
	}

	return rows[0].toDomain(), rows[0].PasswordHash, nil
}
