package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"authgate/config"
	"authgate/internal/domain/entity"
	"authgate/internal/domain/repository"
	"authgate/internal/infrastructure/mongodb"
	"authgate/pkg/helpers"
)

// Seeds a demo account so the login page works on a fresh database.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongodb.NewClient(ctx, mongodb.Options{
		URL:             cfg.MongoURL,
		ConnectTimeout:  cfg.MongoConnectTimeout,
		MaxPoolSize:     cfg.MongoMaxPoolSize,
		MinPoolSize:     cfg.MongoMinPoolSize,
		MaxConnIdleTime: cfg.MongoMaxConnIdleTime,
	})
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	repo := mongodb.NewUserRepository(client.Database(cfg.MongoDatabase))
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("failed to ensure indexes: %v", err)
	}

	const (
		email    = "demo@example.com"
		password = "password123"
		name     = "Demo User"
	)

	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	u, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		u.Name = name
		u.Password = hash
		if err := repo.Update(ctx, u); err != nil {
			log.Fatalf("failed to update demo user: %v", err)
		}
	case errors.Is(err, repository.ErrNotFound):
		u = &entity.User{Email: email, Password: hash, Name: name}
		if err := repo.Create(ctx, u); err != nil {
			log.Fatalf("failed to seed demo user: %v", err)
		}
	default:
		log.Fatalf("failed to look up demo user: %v", err)
	}

	fmt.Printf("seeded user: id=%s email=%s password=%s\n", u.ID, email, password)
}
