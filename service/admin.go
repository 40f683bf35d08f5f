package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"blogsite/app/config"
	"blogsite/app/forms"
	"blogsite/app/models"
	"blogsite/app/repositories"
	"blogsite/app/validation"

	"github.com/spf13/cobra"
)

func newCategoryCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage post categories",
	}

	var description string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := &models.Category{Name: strings.TrimSpace(args[0]), Description: description}
			if err := category.Validate(); err != nil {
				return describe(err)
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return withStore(cfg, func(store *repositories.Store) error {
				if err := store.Categories.Create(category); err != nil {
					return fmt.Errorf("create category: %w", err)
				}
				success(cmd.OutOrStdout(), "Created category %q (id %d)", category.Name, category.ID)
				return nil
			})
		},
	}
	add.Flags().StringVarP(&description, "description", "d", "", "Category description")

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return withStore(cfg, func(store *repositories.Store) error {
				categories, err := store.Categories.List()
				if err != nil {
					return fmt.Errorf("list categories: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(categories) == 0 {
					info(out, "No categories yet. Add one with 'blogsite category add <name>'.")
					return nil
				}
				section(out, "Categories")
				for _, c := range categories {
					fmt.Fprintf(out, "%4d  %s\n", c.ID, c.Name)
					if c.Description != "" {
						muted(out, "      %s", c.Description)
					}
				}
				return nil
			})
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func newUserCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var password string
	create := &cobra.Command{
		Use:   "create <username> <email>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return withStore(cfg, func(store *repositories.Store) error {
				accounts := accountService(cfg, store, cfg.NewLogger(cmd.ErrOrStderr()))
				user, err := accounts.CreateUser(&forms.RegistrationForm{
					Username:             args[0],
					Email:                args[1],
					Password:             password,
					PasswordConfirmation: password,
				})
				if err != nil {
					return describe(err)
				}
				success(cmd.OutOrStdout(), "Created user %s (id %d)", user.Username, user.ID)
				return nil
			})
		},
	}
	create.Flags().StringVarP(&password, "password", "p", "", "Password (at least 8 characters)")
	_ = create.MarkFlagRequired("password")

	var yes bool
	remove := &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user with their profile, posts and comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !yes && !confirm(cmd, fmt.Sprintf("Delete user %s and all of their posts?", args[0])) {
				warning(out, "Operation cancelled")
				return nil
			}
			return withStore(cfg, func(store *repositories.Store) error {
				accounts := accountService(cfg, store, cfg.NewLogger(cmd.ErrOrStderr()))
				if err := accounts.DeleteUser(args[0]); err != nil {
					if errors.Is(err, repositories.ErrNotFound) {
						return fmt.Errorf("no user named %s", args[0])
					}
					return err
				}
				success(out, "Deleted user %s", args[0])
				return nil
			})
		},
	}
	remove.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	cmd.AddCommand(create, remove)
	return cmd
}

// withStore opens the configured database for the duration of fn.
func withStore(cfg *config.Config, fn func(*repositories.Store) error) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// describe flattens field errors into one line for the terminal.
func describe(err error) error {
	verr, ok := validation.As(err)
	if !ok {
		return err
	}
	fields := make([]string, 0, len(verr.Fields))
	for field := range verr.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, verr.Fields[field]))
	}
	return errors.New(strings.Join(parts, "; "))
}
