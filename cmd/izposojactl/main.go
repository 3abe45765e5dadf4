package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/erazemk/izposoja/internal/auth"
	"github.com/erazemk/izposoja/internal/config"
	"github.com/erazemk/izposoja/internal/db"
	"github.com/erazemk/izposoja/internal/model"
	"github.com/erazemk/izposoja/internal/store"
)

const usage = `Usage: izposojactl [-db <path>] <command> [args]

Commands:
  init                 create the database schema
  useradd <username>   create an account with a generated password
  passwd <username>    reset an account's password to a generated one
  users                list accounts
  items                list items and who holds them
  purge-tokens         delete expired revoked session tokens
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("izposojactl", flag.ContinueOnError)
	fs.StringVar(&cfg.Database.Path, "db", cfg.Database.Path, "SQLite database path")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	ctx := context.Background()
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	switch cmd {
	case "init":
		fmt.Printf("Database ready: %s\n", cfg.Database.Path)
		return nil
	case "useradd":
		return cmdUserAdd(ctx, database, rest)
	case "passwd":
		return cmdPasswd(ctx, database, rest)
	case "users":
		return cmdUsers(ctx, database)
	case "items":
		return cmdItems(ctx, database)
	case "purge-tokens":
		n, err := store.PurgeExpiredTokens(ctx, database)
		if err != nil {
			return err
		}
		fmt.Printf("Purged %d expired tokens.\n", n)
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func cmdUserAdd(ctx context.Context, database *sql.DB, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: izposojactl useradd <username>")
	}

	password, hash, err := newPassword()
	if err != nil {
		return err
	}
	user, err := store.CreateUser(ctx, database, args[0], hash)
	if err != nil {
		return err
	}

	fmt.Printf("Created user %s (id %d)\n", user.Username, user.ID)
	fmt.Printf("  Password: %s\n", password)
	return nil
}

func cmdPasswd(ctx context.Context, database *sql.DB, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: izposojactl passwd <username>")
	}

	user, err := store.GetUserByUsername(ctx, database, args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no such user: %s", args[0])
	}
	if err != nil {
		return err
	}

	password, hash, err := newPassword()
	if err != nil {
		return err
	}
	if err := store.UpdateUserPassword(ctx, database, user.ID, hash); err != nil {
		return err
	}

	fmt.Printf("Password for %s reset.\n", user.Username)
	fmt.Printf("  Password: %s\n", password)
	return nil
}

func cmdUsers(ctx context.Context, database *sql.DB) error {
	users, err := store.ListUsers(ctx, database)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Username, u.CreatedAt.Format(model.DateLayout))
	}
	return tw.Flush()
}

func cmdItems(ctx context.Context, database *sql.DB) error {
	items, err := store.ListItems(ctx, database)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATE\tBORROWER\tRETURN BY\tUPDATED")
	for _, it := range items {
		schedule := ""
		if it.ReturnSchedule != nil {
			schedule = *it.ReturnSchedule
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, it.Name, it.State(), it.BorrowerName, schedule, it.LastUpdate)
	}
	return tw.Flush()
}

func newPassword() (password, hash string, err error) {
	password, err = auth.GeneratePassword(16)
	if err != nil {
		return "", "", fmt.Errorf("generating password: %w", err)
	}
	if err := model.ValidatePassword(password); err != nil {
		return "", "", err
	}
	hash, err = auth.HashPassword(password)
	return password, hash, err
}
