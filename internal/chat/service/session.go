// Package service — session.go implementa o ChatSession.
//
// ============================================================
// ARQUITETURA — sessão de chat com streaming
// ============================================================
//
// Cada usuário tem no máximo uma sessão viva, guardada no Registry.
// O fluxo de uma mensagem (Respond):
//
//  1. Mensagem entra no histórico incondicionalmente (visível mesmo
//     nos early-exits).
//  2. Cadeia de guards — cada guard emite UMA resposta pronta como
//     turno do assistant e encerra (nunca vira erro):
//     tamanho > 5000 → sem usuário → sem dados → dados velhos → sem créditos.
//  3. Guards passaram: monta o system prompt (moeda + CSV + stats +
//     portfólio) e chama o completion service em streaming.
//  4. Cada token é acumulado e repassado imediatamente ao sink.
//  5. No fim do stream: histórico ganha um único turno assistant com o
//     texto completo, e a contabilidade de tokens debita o saldo do
//     usuário (falha aqui é logada e engolida — a sessão segue).
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	chatdomain "github.com/boddenberg/networth-bfa-go/internal/chat/domain"
	chatport "github.com/boddenberg/networth-bfa-go/internal/chat/port"
	maindomain "github.com/boddenberg/networth-bfa-go/internal/domain"
	"github.com/boddenberg/networth-bfa-go/internal/infra/observability"
	"github.com/boddenberg/networth-bfa-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var chatTracer = otel.Tracer("chat/service")

// SessionDeps agrupa os colaboradores injetados em toda sessão.
type SessionDeps struct {
	Completion chatport.CompletionStreamer
	Contexts   chatport.ContextBuilder
	Users      port.UserStore
	Metrics    *observability.Metrics
	Logger     *zap.Logger

	// Now é o relógio injetável (testes). nil → time.Now.
	Now func() time.Time
}

func (d *SessionDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Session é o estado de conversa de um usuário: histórico ordenado,
// context bundle atual e o registro do usuário em cache.
//
// O mutex serializa Respond: no máximo um stream em andamento por
// sessão. Duas chamadas concorrentes nunca intercalam escrita no
// histórico.
type Session struct {
	ID     string
	UserID string

	deps SessionDeps

	mu      sync.Mutex
	history []chatdomain.Message
	user    *maindomain.User
	aiCtx   *maindomain.AIContext
}

// NewSession carrega o usuário e monta o context bundle. Falha de
// qualquer um dos dois propaga — o chamador deve encerrar a conexão
// com erro, não degradar silenciosamente.
func NewSession(ctx context.Context, userID string, deps SessionDeps) (*Session, error) {
	ctx, span := chatTracer.Start(ctx, "ChatSession.New")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	user, err := deps.Users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	aiCtx, err := deps.Contexts.BuildAIContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("build ai context: %w", err)
	}

	deps.Logger.Info("chat session created",
		zap.String("user_id", userID),
	)

	return &Session{
		ID:     uuid.NewString(),
		UserID: userID,
		deps:   deps,
		user:   user,
		aiCtx:  aiCtx,
	}, nil
}

// History devolve uma cópia do histórico atual.
func (s *Session) History() []chatdomain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]chatdomain.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Clear zera o histórico. Nenhum outro efeito colateral.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// RefreshContext recalcula o context bundle a partir do storage.
// Em caso de falha, loga e mantém o bundle anterior — nunca propaga.
func (s *Session) RefreshContext(ctx context.Context) {
	aiCtx, err := s.deps.Contexts.BuildAIContext(ctx, s.UserID)
	if err != nil {
		s.deps.Logger.Warn("chat: context refresh failed, keeping previous context",
			zap.String("user_id", s.UserID),
			zap.Error(err),
		)
		return
	}

	s.mu.Lock()
	s.aiCtx = aiCtx
	s.mu.Unlock()
}

// Respond processa uma mensagem do usuário e entrega os fragmentos da
// resposta via sink, na ordem, sem buffering. Só retorna erro quando o
// streaming falha de forma não recuperável — os guards viram respostas
// normais do assistant.
func (s *Session) Respond(ctx context.Context, text string, sink chatport.DeltaSink) error {
	ctx, span := chatTracer.Start(ctx, "ChatSession.Respond")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", s.UserID))

	// Uma mensagem em voo por sessão.
	s.mu.Lock()
	defer s.mu.Unlock()

	// Passo 1: histórico primeiro, incondicionalmente.
	s.history = append(s.history, chatdomain.Message{Role: chatdomain.RoleUser, Content: text})

	// Passo 2: cadeia de guards, na ordem do protocolo.
	if len(text) > chatdomain.MaxMessageLen {
		return s.reply(sink, "too_long", chatdomain.MsgTooLong)
	}

	if s.user == nil {
		return s.reply(sink, "no_user", chatdomain.MsgRetry)
	}

	if s.aiCtx == nil || s.aiCtx.Stats.AverageTotal == 0 || len(s.aiCtx.Portfolio) == 0 {
		return s.reply(sink, "no_data", chatdomain.MsgOnboarding)
	}

	if s.aiCtx.LastEntryDate == nil ||
		s.deps.now().Sub(*s.aiCtx.LastEntryDate) > chatdomain.MaxEntryStalenessDays*24*time.Hour {
		return s.reply(sink, "stale_data", chatdomain.MsgStaleData)
	}

	if s.user.AvailableAITokens <= 0 {
		// Recarrega o usuário em background: créditos podem ter sido
		// adicionados por fora desde o cache.
		go s.refreshUser()
		return s.reply(sink, "no_credits", chatdomain.MsgOutOfCredits)
	}

	// Passo 3: prompt + chamada em streaming.
	systemPrompt := buildSystemPrompt(s.aiCtx)

	var acc strings.Builder
	usage, err := s.deps.Completion.StreamChat(ctx, systemPrompt, s.history, func(delta string) error {
		acc.WriteString(delta)
		return sink(delta)
	})
	if err != nil {
		// O texto parcial acumulado NÃO entra no histórico — perda
		// aceitável, não um erro de estado.
		s.deps.Logger.Error("chat: completion stream failed",
			zap.String("user_id", s.UserID),
			zap.Error(err),
		)
		s.deps.Metrics.IncrExternalError("completion")
		return err
	}

	// Passo 5: um único turno assistant com o texto completo.
	s.history = append(s.history, chatdomain.Message{Role: chatdomain.RoleAssistant, Content: acc.String()})

	s.applyUsage(usage)
	return nil
}

// reply emite exatamente um fragmento igual à mensagem pronta e a
// registra como turno do assistant.
func (s *Session) reply(sink chatport.DeltaSink, guard, msg string) error {
	s.deps.Metrics.IncrGuardRejection(guard)
	s.deps.Logger.Info("chat: guard short-circuit",
		zap.String("user_id", s.UserID),
		zap.String("guard", guard),
	)

	s.history = append(s.history, chatdomain.Message{Role: chatdomain.RoleAssistant, Content: msg})
	return sink(msg)
}

// applyUsage debita o saldo de tokens e persiste os contadores.
// Chamado com s.mu já em posse. Falha de persistência é logada e
// engolida — a sessão continua com o registro local atualizado.
func (s *Session) applyUsage(usage maindomain.TokenUsage) {
	s.deps.Metrics.RecordTokens(usage.PromptTokens, usage.CompletionTokens)

	s.user.UsedAITotalTokens += usage.TotalTokens
	s.user.UsedAIPromptTokens += usage.PromptTokens
	s.user.AvailableAITokens -= usage.TotalTokens

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.deps.Users.UpdateUser(ctx, s.UserID, map[string]any{
		"available_ai_tokens":   s.user.AvailableAITokens,
		"used_ai_total_tokens":  s.user.UsedAITotalTokens,
		"used_ai_prompt_tokens": s.user.UsedAIPromptTokens,
	})
	if err != nil {
		s.deps.Logger.Warn("chat: token bookkeeping write failed",
			zap.String("user_id", s.UserID),
			zap.Error(err),
		)
	}
}

// refreshUser recarrega o registro do usuário (top-up de créditos).
// Roda em goroutine própria; falha é logada e engolida.
func (s *Session) refreshUser() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := s.deps.Users.GetUser(ctx, s.UserID)
	if err != nil {
		s.deps.Logger.Warn("chat: user refresh failed",
			zap.String("user_id", s.UserID),
			zap.Error(err),
		)
		return
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}

// buildSystemPrompt monta o system prompt com o context bundle.
// Estatísticas não finitas (dados insuficientes) e o monthly income
// reservado aparecem como o sentinel UNKNOWN, nunca como número.
func buildSystemPrompt(aiCtx *maindomain.AIContext) string {
	var portfolio strings.Builder
	for i, p := range aiCtx.Portfolio {
		if i > 0 {
			portfolio.WriteByte('\n')
		}
		fmt.Fprintf(&portfolio, "%s: %g", p.AccountName, p.Balance)
	}

	return fmt.Sprintf(`You are a personal finance assistant. The user tracks account balances and investments in this app; answer questions about their data, in their currency (%s).

Monthly financial summaries (CSV):
%s

Aggregate statistics:
- Average savings per month: %s
- Average total: %s
- Average investment profits per month: %s
- Average change per month: %s
- Monthly income: %s

Current portfolio:
%s

Be concise and concrete. Never invent numbers that are not derivable from the data above.`,
		aiCtx.Currency,
		aiCtx.CSV,
		formatStat(aiCtx.Stats.AverageSavings),
		formatStat(aiCtx.Stats.AverageTotal),
		formatStat(aiCtx.Stats.AverageProfits),
		formatStat(aiCtx.Stats.AverageDiff),
		formatOptionalStat(aiCtx.Stats.MonthlyIncome),
		portfolio.String(),
	)
}

func formatStat(v float64) string {
	if !maindomain.IsFiniteStat(v) {
		return chatdomain.StatUnknown
	}
	return fmt.Sprintf("%.2f", v)
}

func formatOptionalStat(v *float64) string {
	if v == nil {
		return chatdomain.StatUnknown
	}
	return formatStat(*v)
}
