package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vrsandeep/readalong/internal/api"
	"github.com/vrsandeep/readalong/internal/auth"
	"github.com/vrsandeep/readalong/internal/core"
	"github.com/vrsandeep/readalong/internal/jobs"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "development"

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize the core application components
	app, err := core.New()
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()
	app.Version = version

	// --- First User Provisioning ---
	st := app.Store()
	userCount, err := st.CountUsers()
	if err != nil {
		log.Fatalf("Could not check user count: %v", err)
	}
	if userCount == 0 {
		log.Println("No users found. Creating default admin account.")
		password := generateRandomPassword(12)
		passwordHash, err := auth.HashPassword(password)
		if err != nil {
			log.Fatalf("Could not hash default admin password: %v", err)
		}
		if _, err := st.CreateUser("admin", passwordHash, "admin", app.Clock().Now()); err != nil {
			log.Fatalf("Could not create default admin user: %v", err)
		}
		log.Println("==================================================")
		log.Println("Default admin user created.")
		log.Printf("Username: admin")
		log.Printf("Password: %s", password)
		log.Println("Please change this password immediately.")
		log.Println("==================================================")
	}

	// Page text is re-read when files under the pages directory change.
	if err := app.Pages().Watch(); err != nil {
		log.Printf("Warning: page watcher not started: %v", err)
	}

	scheduler := jobs.StartJobs(app)

	// Setup the API server
	server := api.NewServer(app)
	addr := fmt.Sprintf(":%d", app.Config().Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}
	// --- Graceful Shutdown ---
	go func() {
		log.Printf("Starting web server on %s (version %s)", httpServer.Addr, app.Version)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	// Wait for an interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	scheduler.Stop()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	// Open reading sessions save their high-water mark on the way out.
	app.Sessions().CloseAll(ctx)

	log.Println("Server exiting.")
}

func generateRandomPassword(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			log.Fatalf("Could not generate password: %v", err)
		}
		b[i] = charset[n.Int64()]
	}
	return string(b)
}
