package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"tugasku/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 5 {
		fmt.Println("usage: go run ./cmd/create_user <email> <first_name> <last_name> <password>")
		os.Exit(2)
	}
	email := os.Args[1]
	firstName := os.Args[2]
	lastName := os.Args[3]
	password := os.Args[4]

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}

	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", email, existing.ID)
		os.Exit(0)
	}

	hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	user := models.User{
		FirstName:      firstName,
		LastName:       lastName,
		Email:          email,
		HashedPassword: hpw,
		IsActive:       true,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s (id=%d)\n", email, user.ID)
}
