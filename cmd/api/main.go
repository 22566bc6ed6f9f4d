package main

import (
	"log"

	"prepsphere-backend/internal/server"
)

// @title PrepSphere API
// @version 1.0
// @description Placement portal backend: profiles, jobs, events, files and notifications.
// @BasePath /api/v1
func main() {
	srv := server.NewServer()

	log.Printf("Listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %s", err)
	}
}
