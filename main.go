package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tupilaqs/auth"
	"tupilaqs/config"
	"tupilaqs/db"
	"tupilaqs/handlers"
	"tupilaqs/services"
	ws "tupilaqs/websocket"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal("Could not load configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatal("Could not initialize database: ", err)
	}
	defer store.Close()

	quiz := services.NewQuizService(store, cfg.AdminUsers)
	if err := quiz.PromoteAdmins(ctx); err != nil {
		log.Fatal("Could not promote admin users: ", err)
	}

	if cfg.Seed || cfg.InitDB {
		n, err := quiz.SeedOfficial(ctx)
		if err != nil {
			log.Fatal("Could not seed questions: ", err)
		}
		log.Printf("seeded %d built-in questions", n)
	}

	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	go tokens.RunCleanup(ctx, time.Hour)

	hub := ws.NewHub()
	go hub.Run(ctx)

	h := handlers.New(quiz, tokens, hub, store, cfg.AllowedOrigins)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("Server starting on %s (%s)...", cfg.Addr, cfg.DBDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
