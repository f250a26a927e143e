package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/stemsi/examforge/internal/config"
	"github.com/stemsi/examforge/internal/database"
	"github.com/stemsi/examforge/internal/identity"
	"github.com/stemsi/examforge/internal/logger"
	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/profile"
	"github.com/stemsi/examforge/internal/repository"
	"github.com/stemsi/examforge/internal/service"
	"github.com/stemsi/examforge/internal/session"
	"golang.org/x/term"
)

// create-admin registers an account, or reuses an existing one when the
// password matches, and grants it the admin role.
func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// ─── Connect to Stores ─────────────────────────────────────────────
	store, closeStore, err := database.OpenDocStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open document store")
	}
	defer closeStore()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Services ───────────────────────────────────────────
	hub := session.NewHub()
	users := repository.NewUserRepository(store)
	provider := identity.NewLocalProvider(cfg, store, identity.NewRedisSessionStore(rdb), hub, log)
	resolver := profile.NewResolver(users, rdb, cfg.RoleCacheTTL, hub, log)
	defer resolver.Close()
	authService := service.NewAuthService(provider, users, resolver, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create Admin User ===")

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println()

	// ─── Logic ─────────────────────────────────────────────────────────
	sess, err := authService.Register(ctx, model.RegisterRequest{Name: name, Email: email, Password: password})
	var formErr *service.FormError
	switch {
	case errors.As(err, &formErr):
		fmt.Printf("Error: %s\n", formErr.Message)
		return
	case identity.CodeOf(err) == identity.CodeEmailAlreadyInUse:
		fmt.Println("Account exists, signing in to promote it...")
		sess, err = authService.Login(ctx, model.LoginRequest{Email: email, Password: password})
		if err != nil {
			fmt.Printf("Error: %s\n", identity.Message(err))
			return
		}
		if err := users.CreateUserDocument(ctx, sess.UID, sess.Email, sess.DisplayName); err != nil {
			log.Fatal().Err(err).Msg("Failed to write profile")
		}
	case err != nil:
		log.Fatal().Err(err).Msg("Failed to register account")
	}

	if err := users.SetRole(ctx, sess.UID, model.RoleAdmin); err != nil {
		log.Fatal().Err(err).Msg("Failed to grant admin role")
	}
	resolver.Invalidate(ctx, sess.UID)

	if err := provider.SignOut(ctx, sess.UID, sess.SessionID); err != nil {
		log.Warn().Err(err).Msg("Failed to end CLI session")
	}

	fmt.Printf("\nSuccess! %s (%s) is now an admin. UID: %s\n", name, sess.Email, sess.UID)
}
