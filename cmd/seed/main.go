package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/lumenlabs/profile-service/config"
	"github.com/lumenlabs/profile-service/internal/domain/entity"
	"github.com/lumenlabs/profile-service/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@example.com"
	password := "password123"
	first, last := "Ann", "Lee"

	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	meta, err := json.Marshal(entity.ProfileMetadata{FirstName: first, LastName: last})
	if err != nil {
		log.Fatalf("failed to marshal metadata: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, display_name, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE SET display_name = EXCLUDED.display_name, metadata = EXCLUDED.metadata
		RETURNING id
	`, email, hash, entity.DisplayNameFrom(first, last), meta).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s\n", id, email, password)
}
