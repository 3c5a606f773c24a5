package main

import (
	"log"
	"os"
	"time"

	"Vistoria/Capture"
	"Vistoria/CronJobs"
	"Vistoria/FiberConfig"
	"Vistoria/Models"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment defaults")
	}

	dbPath := envOr("DB_PATH", "database.db")
	addr := envOr("LISTEN_ADDR", ":3001")
	backupDir := envOr("BACKUP_DIR", "backups")

	db, err := Models.Connect(dbPath)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	store := Models.NewRecordStore(db)
	lifecycle := Models.NewLifecycle(store)
	registry := Capture.NewRegistry(lifecycle, 2*time.Hour)

	maintenance := CronJobs.NewStoreMaintenance(store, backupDir, 72*time.Hour)
	if err := maintenance.Start(); err != nil {
		log.Printf("Failed to start store maintenance: %v", err)
	}
	defer maintenance.Stop()

	FiberConfig.FiberConfig(lifecycle, registry, addr)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
