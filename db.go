package main

import (
	"log"
	"os"
	"strings"

	"tugasku/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	var err error
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect postgres database:", err)
	}

	// Control schema migrations with env DB_AUTO_MIGRATE (default true).
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if !shouldMigrate {
		return
	}

	// Migrate models individually so a failure on one doesn't block others.
	// Users first: tasks and tags carry FKs to it.
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Printf("migration warning (users): %v", err)
	}
	if err := db.AutoMigrate(&models.Task{}); err != nil {
		log.Printf("migration warning (tasks): %v", err)
	}
	if err := db.AutoMigrate(&models.Tag{}); err != nil {
		log.Printf("migration warning (tags): %v", err)
	}
	if err := db.AutoMigrate(&models.TaskTag{}); err != nil {
		log.Printf("migration warning (task_tags): %v", err)
	}
	if err := db.AutoMigrate(&models.RevokedToken{}); err != nil {
		log.Printf("migration warning (revoked_tokens): %v", err)
	}
}
