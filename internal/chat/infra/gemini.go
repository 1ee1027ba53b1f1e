package infra

import (
	"context"
	"fmt"

	chatdomain "github.com/boddenberg/networth-bfa-go/internal/chat/domain"
	chatport "github.com/boddenberg/networth-bfa-go/internal/chat/port"
	maindomain "github.com/boddenberg/networth-bfa-go/internal/domain"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

var tracer = otel.Tracer("chat/infra")

// ============================================================
// GeminiStreamer — cliente do completion service (Gemini)
// ============================================================
//
// Implementa chatport.CompletionStreamer sobre o SDK google genai:
// system prompt vira SystemInstruction, o histórico vira Contents com
// papéis user/model, e cada chunk do stream é repassado ao sink assim
// que chega. A contagem de tokens sai do UsageMetadata do último chunk.

type GeminiStreamer struct {
	client *genai.Client
	model  string
	cb     *gobreaker.CircuitBreaker
}

// NewGeminiStreamer creates the streaming completion client.
func NewGeminiStreamer(ctx context.Context, apiKey, model string, cb *gobreaker.CircuitBreaker) (*GeminiStreamer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiStreamer{client: client, model: model, cb: cb}, nil
}

// StreamChat faz a chamada em streaming e encaminha cada fragmento de
// texto ao sink, sem buffering. Retorna a contagem final de tokens.
//
// A resposta do serviço é validada na fronteira de confiança: stream
// sem candidates ou sem usage final vira ErrInvalidUpstreamResponse.
func (g *GeminiStreamer) StreamChat(ctx context.Context, systemPrompt string, history []chatdomain.Message, sink chatport.DeltaSink) (maindomain.TokenUsage, error) {
	ctx, span := tracer.Start(ctx, "GeminiStreamer.StreamChat")
	defer span.End()
	span.SetAttributes(attribute.Int("history.len", len(history)))

	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := genai.RoleUser
		if m.Role == chatdomain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
	}

	var usage maindomain.TokenUsage

	_, err := g.cb.Execute(func() (any, error) {
		var (
			sawText   bool
			lastUsage *genai.GenerateContentResponseUsageMetadata
		)

		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, config) {
			if err != nil {
				return nil, fmt.Errorf("gemini stream: %w", err)
			}
			if resp.UsageMetadata != nil {
				lastUsage = resp.UsageMetadata
			}
			if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
				continue
			}
			for _, part := range resp.Candidates[0].Content.Parts {
				if part.Text == "" {
					continue
				}
				sawText = true
				if err := sink(part.Text); err != nil {
					return nil, fmt.Errorf("forward delta: %w", err)
				}
			}
		}

		if !sawText {
			return nil, &maindomain.ErrInvalidUpstreamResponse{
				Service: "gemini",
				Reason:  "stream produced no text candidates",
			}
		}
		if lastUsage == nil {
			return nil, &maindomain.ErrInvalidUpstreamResponse{
				Service: "gemini",
				Reason:  "stream finished without usage metadata",
			}
		}

		usage = maindomain.TokenUsage{
			PromptTokens:     int64(lastUsage.PromptTokenCount),
			CompletionTokens: int64(lastUsage.CandidatesTokenCount),
			TotalTokens:      int64(lastUsage.TotalTokenCount),
		}
		return nil, nil
	})
	if err != nil {
		return maindomain.TokenUsage{}, &maindomain.ErrExternalService{Service: "gemini", Err: err}
	}

	return usage, nil
}
