// Package port — chat_port.go define as interfaces (ports) do módulo
// de chat. O ChatSession depende delas e NÃO das implementações
// concretas (Gemini, Supabase), o que facilita testes e troca.
package port

import (
	"context"

	chatdomain "github.com/boddenberg/networth-bfa-go/internal/chat/domain"
	maindomain "github.com/boddenberg/networth-bfa-go/internal/domain"
)

// DeltaSink recebe cada fragmento de texto do stream, na ordem, sem
// buffering além de um token. Retornar erro aborta o forwarding (o
// stream upstream pode correr até o fim).
type DeltaSink func(delta string) error

// CompletionStreamer é a interface para o serviço de completion.
// Recebe system prompt + histórico completo, entrega os fragmentos via
// sink e retorna a contagem final de tokens quando o stream termina.
type CompletionStreamer interface {
	StreamChat(ctx context.Context, systemPrompt string, history []chatdomain.Message, sink DeltaSink) (maindomain.TokenUsage, error)
}

// ContextBuilder monta o context bundle (CSV + stats + portfólio) a
// partir do estado atual do storage. Implementado pelo FinanceService.
type ContextBuilder interface {
	BuildAIContext(ctx context.Context, userID string) (*maindomain.AIContext, error)
}
