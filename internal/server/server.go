package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	// Load env file into environments.
	_ "github.com/joho/godotenv/autoload"

	"prepsphere-backend/internal/database"
	"prepsphere-backend/internal/mailer"
	"prepsphere-backend/internal/storage"
)

// MyServer holds the shared dependencies every route handler draws from.
type MyServer struct {
	DB    *database.DBinstanceStruct
	Mail  *mailer.Mailer
	Store *storage.Client
}

// NewServer constructs the HTTP server with its database, mailer and object
// storage wired in. Missing object storage is tolerated; the file endpoints
// answer 503 until it is configured.
func NewServer() *http.Server {
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}

	db, err := database.GetMainDB()
	if err != nil {
		log.Fatalf("Database failed to initialize: %s", err)
	}

	s := &MyServer{
		DB:   db,
		Mail: mailer.New(mailer.ConfigFromEnv()),
	}

	if cfg := storage.ConfigFromEnv(); cfg.Configured() {
		store, err := storage.NewClient(cfg)
		if err != nil {
			log.Fatalf("Object storage failed to initialize: %s", err)
		}
		s.Store = store
	} else {
		log.Println("Object storage not configured, file endpoints disabled")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
