// Package handler — ws_handler.go é o transporte do chat.
//
// Conexão websocket por usuário autenticado. Frames JSON:
//
//	entrada:  {"type":"message","content":"..."}
//	          {"type":"clear"}
//	          {"type":"refresh"}
//	saída:    {"type":"session","session_id":"...","messages":[...]}
//	          {"type":"start"} / {"type":"delta","content":"..."} / {"type":"end"}
//	          {"type":"error","message":"..."}
//
// Os frames start/end delimitam a resposta em streaming para o cliente
// distinguir "resposta em andamento" do texto literal. O read loop
// processa uma mensagem por vez — é ele que serializa o Respond.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	chatdomain "github.com/boddenberg/networth-bfa-go/internal/chat/domain"
	chatservice "github.com/boddenberg/networth-bfa-go/internal/chat/service"
	"github.com/boddenberg/networth-bfa-go/internal/service"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const writeWait = 10 * time.Second

// Frame é o envelope JSON de todos os frames, nos dois sentidos.
type Frame struct {
	Type      string               `json:"type"`
	Content   string               `json:"content,omitempty"`
	Message   string               `json:"message,omitempty"`
	SessionID string               `json:"session_id,omitempty"`
	Messages  []chatdomain.Message `json:"messages,omitempty"`
}

// ChatWebsocketHandler atende GET /v1/chat/ws.
func ChatWebsocketHandler(registry *chatservice.Registry, authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := authenticate(r, authSvc)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warn("chat ws: accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusInternalError, "connection dropped")

		ctx := r.Context()

		// Retoma a sessão viva ou cria uma nova. Falha aqui é erro de
		// conexão (usuário não carregável) — fecha com motivo.
		session, err := registry.CreateOrResume(ctx, userID)
		if err != nil {
			logger.Error("chat ws: session create failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			conn.Close(websocket.StatusInternalError, "session unavailable")
			return
		}

		if err := write(ctx, conn, Frame{
			Type:      "session",
			SessionID: session.ID,
			Messages:  session.History(),
		}); err != nil {
			return
		}

		logger.Info("chat ws: connected", zap.String("user_id", userID))

		// Read loop: uma mensagem de cada vez.
		for {
			var frame Frame
			if err := wsjson.Read(ctx, conn, &frame); err != nil {
				status := websocket.CloseStatus(err)
				if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
					logger.Debug("chat ws: closed", zap.String("user_id", userID))
				} else {
					logger.Warn("chat ws: read failed", zap.String("user_id", userID), zap.Error(err))
				}
				return
			}

			switch frame.Type {
			case "message":
				streamReply(ctx, conn, session, frame.Content, logger)

			case "clear":
				session.Clear()
				if err := write(ctx, conn, Frame{Type: "session", SessionID: session.ID}); err != nil {
					return
				}

			case "refresh":
				session.RefreshContext(ctx)

			default:
				if err := write(ctx, conn, Frame{Type: "error", Message: "unknown frame type"}); err != nil {
					return
				}
			}
		}
	}
}

// streamReply encaminha os fragmentos da resposta dentro de um par
// start/end. Falha no meio vira um frame de erro com a mensagem
// genérica — nunca um marcador de streaming sem fechamento.
func streamReply(ctx context.Context, conn *websocket.Conn, session *chatservice.Session, text string, logger *zap.Logger) {
	if err := write(ctx, conn, Frame{Type: "start"}); err != nil {
		return
	}

	err := session.Respond(ctx, text, func(delta string) error {
		return write(ctx, conn, Frame{Type: "delta", Content: delta})
	})
	if err != nil {
		logger.Error("chat ws: respond failed",
			zap.String("user_id", session.UserID),
			zap.Error(err),
		)
		// Melhor esforço: a conexão pode já ter caído.
		_ = write(ctx, conn, Frame{Type: "error", Message: chatdomain.MsgRetry})
	}

	_ = write(ctx, conn, Frame{Type: "end"})
}

func write(ctx context.Context, conn *websocket.Conn, frame Frame) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return wsjson.Write(ctx, conn, frame)
}

// authenticate resolve o user id do token — header Authorization ou
// query param token (browsers não mandam headers no handshake ws).
func authenticate(r *http.Request, authSvc *service.AuthService) (string, error) {
	token := ""
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = parts[1]
		}
	}
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return "", errors.New("missing token")
	}

	claims, err := authSvc.ValidateAccessToken(token)
	if err != nil {
		return "", err
	}
	return claims.Sub, nil
}
