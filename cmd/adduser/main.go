// Command adduser creates a user directly in the database, mainly to
// bootstrap the first admin of an install.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"fundledger/internal/config"
	"fundledger/internal/database"
	"fundledger/internal/logger"
	"fundledger/internal/models"
	"fundledger/internal/services"
)

const minPasswordLength = 8

func main() {
	logger.Init(os.Getenv("ENV"), "warn")
	defer logger.Sync()

	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Email address")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	firstName := fs.String("first", "", "First name")
	lastName := fs.String("last", "", "Last name")
	role := fs.String("role", string(models.RoleAdmin), "Role: admin or user")
	dbPath := fs.String("db", "", "sqlite database file (overrides DB_DRIVER settings)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> [-password <password>] [-role admin|user] [-db <sqlite file>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}
	if r := models.Role(*role); r != models.RoleAdmin && r != models.RoleUser {
		return fmt.Errorf("invalid role %q", *role)
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	dbConfig := database.NewConfig(cfg)
	if *dbPath != "" {
		dbConfig.Driver = database.DriverSQLite
		dbConfig.Path = *dbPath
	}

	manager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer manager.Close()

	if err := manager.Migrate(); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	user, err := services.NewUserService(manager.DB()).
		CreateUserWithRole(*email, password, *firstName, *lastName, models.Role(*role))
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", *email, err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %s (%s)\n", user.Email, user.ID, user.Role)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
