package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrlokans/marked/internal/config"
	"github.com/mrlokans/marked/internal/database"
	"github.com/mrlokans/marked/internal/database/sqlerr"
	"github.com/mrlokans/marked/internal/database/users"
)

// CreateUserCommand creates a user and prints their API token.
type CreateUserCommand struct {
	Username     string
	Email        string
	DatabasePath string

	Out io.Writer
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{Out: os.Stdout}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email address")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -username <name> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a user for AUTH_MODE=token and print the bearer token.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Username == "" {
		fs.Usage()
		return fmt.Errorf("required flag -username not provided")
	}
	return nil
}

func (cmd *CreateUserCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	repo := users.NewRepository(db.DB)

	_, err = repo.GetUserByUsername(ctx, strings.TrimSpace(cmd.Username))
	if err == nil {
		return fmt.Errorf("user %q already exists", cmd.Username)
	}
	if !sqlerr.IsNotFound(err) {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	user, token, err := repo.CreateUser(ctx, cmd.Username, cmd.Email)
	if sqlerr.IsUniqueViolation(err) {
		return fmt.Errorf("user %q already exists", cmd.Username)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(cmd.Out, "Created user %s (id %d)\n", user.Username, user.ID)
	fmt.Fprintf(cmd.Out, "Token: %s\n", token)
	fmt.Fprintf(cmd.Out, "Store it now; only its hash is kept.\n")
	return nil
}
