package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"dicom-viewer/internal/store"
)

const (
	// Default timeout for ledger operations
	defaultTimeout = 30 * time.Second
	// Default ledger path
	defaultLedgerPath = "dicom-viewer.db"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	username := ""
	if len(os.Args) > 2 {
		username = os.Args[2]
	}
	if username == "" && command != "status" {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	ledgerPath := os.Getenv("LEDGER_PATH")
	if ledgerPath == "" {
		ledgerPath = defaultLedgerPath
	}

	db, err := store.Open(ctx, ledgerPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open ledger: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure LEDGER_PATH is set correctly (current: %s)\n", ledgerPath)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close ledger: %v\n", err)
		}
	}()

	ok := false
	switch command {
	case "create":
		role := store.RolePatient
		if len(os.Args) > 3 {
			role = os.Args[3]
		}
		ok = createUser(ctx, db, username, role)
	case "reset":
		ok = resetPassword(ctx, db, username)
	case "status":
		ok = showStatus(ctx, db)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %q\n", command)
		printUsage()
	}
	if !ok {
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("DICOM Viewer Account Management")
	fmt.Println("")
	fmt.Println("Usage: resetpw <command> [username] [role]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  create <username> [role]  - Create an account (radiologist or patient, default patient)")
	fmt.Println("  reset <username>          - Reset an account's password")
	fmt.Println("  status                    - List configured accounts")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  LEDGER_PATH - Path to the ledger file (default: %s)\n", defaultLedgerPath)
}

// promptPassword reads and confirms a password without echo.
func promptPassword() (string, bool) {
	fmt.Print("New Password: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return "", false
	}

	fmt.Print("Confirm Password: ")
	confirm, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		return "", false
	}

	if !bytes.Equal(password, confirm) {
		fmt.Fprintln(os.Stderr, "Error: Passwords do not match")
		return "", false
	}
	if len(password) < 6 {
		fmt.Fprintln(os.Stderr, "Error: Password must be at least 6 characters")
		return "", false
	}
	return string(password), true
}

func createUser(ctx context.Context, db *store.Store, username, role string) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	password, ok := promptPassword()
	if !ok {
		return false
	}
	if err := db.CreateUser(ctx, username, role, password); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}
	fmt.Printf("Created %s account %s.\n", role, username)
	return true
}

func resetPassword(ctx context.Context, db *store.Store, username string) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	password, ok := promptPassword()
	if !ok {
		return false
	}
	if err := db.SetPassword(ctx, username, password); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to update password: %v\n", err)
		return false
	}
	fmt.Println("Password updated successfully.")
	return true
}

func showStatus(ctx context.Context, db *store.Store) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	users, err := db.Users(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}
	if len(users) == 0 {
		fmt.Println("Status: No accounts configured (use 'create')")
		return true
	}
	fmt.Println("Status: Accounts configured:")
	for _, u := range users {
		fmt.Printf("  %s (%s)\n", u.Username, u.Role)
	}
	return true
}
