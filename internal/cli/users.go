package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mrlokans/assessment-importer/internal/config"
	"github.com/mrlokans/assessment-importer/internal/database"
	"github.com/mrlokans/assessment-importer/internal/database/users"
	"github.com/mrlokans/assessment-importer/internal/entities"
)

// UsersCommand manages importing accounts: create, show, disable, enable.
type UsersCommand struct {
	Action       string
	Username     string
	Email        string
	ID           uint
	DatabasePath string

	out io.Writer
}

func NewUsersCommand() *UsersCommand {
	return &UsersCommand{out: os.Stdout}
}

func (cmd *UsersCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("users", flag.ContinueOnError)

	fs.StringVar(&cmd.Username, "username", "", "Account username (create, show)")
	fs.StringVar(&cmd.Email, "email", "", "Account email (create)")
	fs.UintVar(&cmd.ID, "id", 0, "Account id (show, disable, enable)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the sqlite database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s users <create|show|disable|enable> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Manage the accounts packages are imported under.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s users create -username author -email author@example.com\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s users disable -id 3\n", os.Args[0])
	}

	if len(args) == 0 {
		fs.Usage()
		return fmt.Errorf("missing action")
	}
	cmd.Action = args[0]
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	switch cmd.Action {
	case "create":
		if cmd.Username == "" || cmd.Email == "" {
			return fmt.Errorf("-username and -email are required")
		}
	case "show":
		if cmd.Username == "" && cmd.ID == 0 {
			return fmt.Errorf("one of -username or -id is required")
		}
	case "disable", "enable":
		if cmd.ID == 0 {
			return fmt.Errorf("required flag -id not provided")
		}
	default:
		return fmt.Errorf("unknown action %q", cmd.Action)
	}
	return nil
}

func (cmd *UsersCommand) Run() error {
	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	db, err := database.NewDatabase(database.Options{
		Driver:   config.DatabaseDriverSQLite,
		Path:     absDBPath,
		LogLevel: "silent",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	repo := users.NewRepository(db.DB)

	switch cmd.Action {
	case "create":
		user, err := repo.CreateUser(cmd.Username, cmd.Email)
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("username %q or email %q is taken", cmd.Username, cmd.Email)
		}
		if err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		fmt.Fprintf(cmd.out, "Created account %d (%s)\n", user.ID, user.Username)

	case "show":
		var user *entities.User
		if cmd.ID != 0 {
			user, err = repo.GetUserByID(cmd.ID)
		} else {
			user, err = repo.GetUserByUsername(cmd.Username)
		}
		if database.IsNotFound(err) {
			return fmt.Errorf("account not found")
		}
		if err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}
		state := "active"
		if user.Disabled {
			state = "disabled"
		}
		fmt.Fprintf(cmd.out, "%d\t%s\t%s\t%s\n", user.ID, user.Username, user.Email, state)

	case "disable", "enable":
		err := repo.SetDisabled(cmd.ID, cmd.Action == "disable")
		if database.IsNotFound(err) {
			return fmt.Errorf("account %d not found", cmd.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		fmt.Fprintf(cmd.out, "Account %d %sd\n", cmd.ID, cmd.Action)
	}
	return nil
}
