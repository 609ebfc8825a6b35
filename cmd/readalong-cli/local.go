package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vrsandeep/readalong/internal/assets"
	"github.com/vrsandeep/readalong/internal/auth"
	"github.com/vrsandeep/readalong/internal/config"
	"github.com/vrsandeep/readalong/internal/db"
	"github.com/vrsandeep/readalong/internal/models"
	"github.com/vrsandeep/readalong/internal/store"
)

// openDB opens and migrates the database named in config.yml.
func openDB() (*sql.DB, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.RunMigrations(database, assets.MigrationsFS); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	return database, cfg, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, cfg, err := openDB()
			if err != nil {
				return err
			}
			defer database.Close()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", cfg.Database.Path)
			return nil
		},
	}
}

func newCreateUserCmd() *cobra.Command {
	var password, role string
	cmd := &cobra.Command{
		Use:   "create-user <username>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != "admin" && role != "user" {
				return fmt.Errorf("role must be admin or user, got %q", role)
			}
			if reason := auth.ValidateUsername(args[0]); reason != "" {
				return fmt.Errorf("%s", reason)
			}
			if problems := auth.PasswordProblems(password); len(problems) > 0 {
				return fmt.Errorf("%s", problems[0])
			}
			database, _, err := openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			user, err := store.New(database).CreateUser(args[0], hash, role, time.Now())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %s %q (id %d)\n", user.Role, user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password for the new account")
	cmd.Flags().StringVar(&role, "role", "user", "role: admin|user")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newAddBookCmd() *cobra.Command {
	var book models.Book
	var chapters []string
	cmd := &cobra.Command{
		Use:   "add-book <title>",
		Short: "Add a book to the catalogue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, _, err := openDB()
			if err != nil {
				return err
			}
			defer database.Close()

			book.Title = args[0]
			created, err := store.New(database).CreateBook(&book, chapters, time.Now())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %q by %s (id %d, %d pages, %d chapters)\n",
				created.Title, created.Author, created.ID, created.TotalPages, created.TotalChapters)
			return nil
		},
	}
	cmd.Flags().StringVar(&book.Author, "author", "", "author")
	cmd.Flags().StringVar(&book.Genre, "genre", "", "genre")
	cmd.Flags().StringVar(&book.Description, "description", "", "description")
	cmd.Flags().IntVar(&book.TotalPages, "pages", 0, "number of pages")
	cmd.Flags().IntVar(&book.TotalChapters, "chapters", 0, "number of chapters (defaults to the number of titles)")
	cmd.Flags().StringSliceVar(&chapters, "chapter-title", nil, "chapter titles in order")
	return cmd
}
