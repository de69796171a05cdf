// server runs the notes HTTP API: passwordless auth, note CRUD, and the admin
// surface. Migrations are applied at startup.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	authhandler "notes-backend/internal/auth/handler"
	"notes-backend/internal/auth/provider/google"
	authservice "notes-backend/internal/auth/service"
	"notes-backend/internal/config"
	"notes-backend/internal/db"
	"notes-backend/internal/db/migrate"
	"notes-backend/internal/devotp"
	"notes-backend/internal/events"
	"notes-backend/internal/mailer"
	noterepo "notes-backend/internal/note/repository"
	"notes-backend/internal/security"
	"notes-backend/internal/server"
	"notes-backend/internal/telemetry/otel"
	userrepo "notes-backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "notes-backend", false)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	tokens, err := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.SessionTTL())
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	users := userrepo.NewPostgresRepository(conn)
	notes := noterepo.NewPostgresRepository(conn)
	notifier := mailer.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)

	var devStore *devotp.MemoryStore
	if cfg.OTPReturnToClient {
		devStore = devotp.NewMemoryStore()
		log.Println("dev OTP mode enabled: issued codes are retrievable at GET /dev/otp")
	}

	var devSink authservice.CodeSink
	if devStore != nil {
		devSink = devStore
	}
	auth := authservice.NewAuthService(users, notifier, security.NewHasher(cfg.BcryptCost), tokens, cfg.OTPWindow(), devSink)

	var verifier authhandler.IdentityVerifier
	if cfg.GoogleClientID != "" {
		p, err := google.New(ctx, cfg.GoogleClientID)
		if err != nil {
			log.Fatalf("google provider: %v", err)
		}
		verifier = p
	}

	producer := events.NewKafkaProducer(cfg.EventsKafkaBrokersList(), cfg.EventsKafkaTopic)
	var emitter events.Emitter
	if producer != nil {
		emitter = producer
		log.Printf("event pipeline enabled: topic %s", cfg.EventsKafkaTopic)
	}

	deps := server.Deps{
		Auth:     auth,
		Verifier: verifier,
		Tokens:   tokens,
		Users:    users,
		Notes:    notes,
		Emitter:  emitter,
		DB:       conn,
	}
	if devStore != nil {
		deps.DevOTPStore = devStore
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	if producer != nil {
		// Let in-flight async emits finish before the writer closes.
		time.Sleep(events.ShutdownDrainDuration)
		_ = producer.Close()
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
