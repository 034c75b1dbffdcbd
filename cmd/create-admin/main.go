package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/inspiring-reading/exam-backend/internal/config"
	"github.com/inspiring-reading/exam-backend/internal/database"
	"github.com/inspiring-reading/exam-backend/internal/logger"
	"github.com/inspiring-reading/exam-backend/internal/model"
	"github.com/inspiring-reading/exam-backend/internal/repository"
	"github.com/inspiring-reading/exam-backend/internal/service"
	"golang.org/x/term"
)

const minPasswordLength = 8

func main() {
	reset := flag.Bool("reset", false, "Reset the password of an existing admin instead of creating one")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	// Creating an account or resetting a password issues no token, so no
	// Redis client is needed.
	authService := service.NewAuthService(cfg, nil)
	userService := service.NewUserService(repository.NewUserRepository(pool), authService, log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	if *reset {
		fmt.Println("=== Reset Admin Password ===")
	} else {
		fmt.Println("=== Create New Admin User ===")
	}

	fmt.Print("Enter Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)
	if len(username) < 3 {
		fmt.Println("Error: Username must be at least 3 characters")
		os.Exit(1)
	}

	password, err := readPassword("Enter Password: ")
	if err != nil {
		fmt.Println("Error reading password")
		os.Exit(1)
	}
	if len(password) < minPasswordLength {
		fmt.Printf("Error: Password must be at least %d characters\n", minPasswordLength)
		os.Exit(1)
	}
	confirm, err := readPassword("Confirm Password: ")
	if err != nil || confirm != password {
		fmt.Println("Error: Passwords do not match")
		os.Exit(1)
	}

	// ─── Reset Password ────────────────────────────────────────────────
	if *reset {
		admin, err := userService.ResetPassword(ctx, username, password, model.RoleAdmin)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				fmt.Printf("Error: no admin named %q\n", username)
				os.Exit(1)
			}
			log.Fatal().Err(err).Msg("Failed to reset password")
		}
		fmt.Printf("\nSuccess! Password for admin '%s' updated\n", admin.Username)
		return
	}

	// ─── Create Admin ──────────────────────────────────────────────────
	admin, err := userService.Create(ctx, username, password, model.RoleAdmin)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			fmt.Printf("Error: username %q is already taken\n", username)
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Failed to create admin")
	}

	fmt.Printf("\nSuccess! Admin '%s' created with ID: %d\n", admin.Username, admin.ID)
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return string(b), err
}
