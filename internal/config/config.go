package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DBDSN     string
	LogFile   string
	WebOrigin string
}

func Load() Config {
	// Load .env if present; real env vars win.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "tienda.db" // sqlite file in project root
	}
	logFile := os.Getenv("LOG_FILE")
	origin := os.Getenv("WEB_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173" // vite dev server
	}

	cfg := Config{Port: port, DBDSN: dsn, LogFile: logFile, WebOrigin: origin}
	log.Printf("[config] PORT=%s DB_DSN=%s WEB_ORIGIN=%s", cfg.Port, cfg.DBDSN, cfg.WebOrigin)
	return cfg
}
