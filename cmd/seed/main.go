// seed creates the initial admin account. Roles are never assigned by any
// self-service flow, so this is the only way an admin comes to exist.
// Idempotent: an existing account with the admin email is left untouched.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/google/uuid"

	"notes-backend/internal/config"
	"notes-backend/internal/db"
	userdomain "notes-backend/internal/user/domain"
	userrepo "notes-backend/internal/user/repository"
)

func main() {
	email := flag.String("email", "admin@example.com", "Admin account email")
	name := flag.String("name", "Admin", "Admin account display name")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	ctx := context.Background()

	existing, err := users.GetByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Printf("Seed already applied (%s exists, role %s). Skipping.", *email, existing.Role)
		return
	}

	now := time.Now().UTC()
	admin := &userdomain.User{
		ID:         uuid.New().String(),
		Email:      *email,
		Name:       *name,
		Role:       userdomain.RoleAdmin,
		IsVerified: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := admin.Validate(); err != nil {
		log.Fatalf("admin record: %v", err)
	}
	if err := users.Save(ctx, admin); err != nil {
		log.Fatalf("create admin: %v", err)
	}

	log.Printf("Seed completed: admin %s created. Log in via the OTP flow.", *email)
}
