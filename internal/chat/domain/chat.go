// Package domain — chat.go define os tipos do módulo de chat com IA.
//
// O chat é uma conversa por usuário sobre os dados financeiros dele:
// o backend monta um "context bundle" (CSV + estatísticas + portfólio),
// injeta como system prompt e faz streaming da resposta do modelo
// token a token pelo websocket.
package domain

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message é um turno da conversa, com papel (user/assistant) e texto.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MaxMessageLen é o tamanho máximo de uma mensagem do usuário.
const MaxMessageLen = 5000

// MaxEntryStalenessDays — se a última entrada de saldo for mais velha
// que isso, o assistente recusa a responder (dados velhos demais).
const MaxEntryStalenessDays = 60

// Respostas prontas dos guards. Cada guard emite exatamente uma dessas
// como turno do assistant e encerra o fluxo — nunca vira erro HTTP.
const (
	// MsgTooLong — mensagem acima de MaxMessageLen.
	MsgTooLong = "That message is too long for me to read. Please keep it under 5000 characters."

	// MsgRetry — registro do usuário indisponível no momento.
	MsgRetry = "Something went wrong on my side. Please try again in a moment."

	// MsgOnboarding — sem dados de contabilidade ainda.
	MsgOnboarding = "I don't see any financial data yet. Add your accounts and record your first balance entry, then ask me again."

	// MsgStaleData — última entrada velha demais para dar conselho.
	MsgStaleData = "Your latest balance entry is too old for me to give reliable advice. Record a fresh entry and ask me again."

	// MsgOutOfCredits — saldo de tokens de IA esgotado.
	MsgOutOfCredits = "You have run out of AI credits. Once your credits are topped up I will be happy to continue."
)

// StatUnknown é o sentinel usado no prompt para estatísticas não
// finitas (dados insuficientes) e para o monthly income reservado.
const StatUnknown = "UNKNOWN"
