// cmd/seedadmin/main.go — Creates or updates the bootstrap admin account.
// Usage: go run ./cmd/seedadmin -email admin@example.com -password secret
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"triostack/internal/config"
	"triostack/internal/infra"
)

func main() {
	email := flag.String("email", "admin@triostack.local", "admin email")
	password := flag.String("password", "admin123", "admin password")
	name := flag.String("name", "System Administrator", "admin display name")
	department := flag.String("department", "IT", "admin department")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), 12)
	if err != nil {
		log.Fatalf("bcrypt error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	m, err := infra.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("mongo connect error: %v", err)
	}
	defer m.Close()

	normalized := strings.ToLower(strings.TrimSpace(*email))
	now := time.Now().UTC()
	_, err = m.Users().UpdateOne(ctx,
		bson.M{"email": normalized},
		bson.M{
			"$set": bson.M{
				"name":         *name,
				"passwordHash": string(hash),
				"role":         "admin",
				"department":   *department,
				"isActive":     true,
				"updatedAt":    now,
			},
			"$setOnInsert": bson.M{
				"email":     normalized,
				"createdAt": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		log.Fatalf("upsert error: %v", err)
	}
	fmt.Printf("admin '%s' created/updated\n", normalized)
}
