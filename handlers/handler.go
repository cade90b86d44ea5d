package handlers

import (
	"context"

	"tupilaqs/auth"
	"tupilaqs/services"
	ws "tupilaqs/websocket"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler carries what the HTTP and socket endpoints share.
type Handler struct {
	Quiz           *services.QuizService
	Tokens         *auth.Issuer
	Hub            *ws.Hub
	DB             Pinger
	AllowedOrigins []string
	Dispatcher     *Dispatcher
}

func New(quiz *services.QuizService, tokens *auth.Issuer, hub *ws.Hub, db Pinger, allowedOrigins []string) *Handler {
	return &Handler{
		Quiz:           quiz,
		Tokens:         tokens,
		Hub:            hub,
		DB:             db,
		AllowedOrigins: allowedOrigins,
		Dispatcher:     &Dispatcher{Quiz: quiz, Tokens: tokens, Hub: hub},
	}
}
