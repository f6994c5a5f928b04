// Package main provides an administrative CLI for provisioning gateway
// user credentials directly against the database, bypassing the HTTP API
// (account provisioning is intentionally not exposed over HTTP).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/sys3222/akshare-mcp-adapter/internal/config"
	"github.com/sys3222/akshare-mcp-adapter/internal/credentials"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError(errors.New("no command specified"))
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := credentials.Open(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	defer store.Close()

	switch args[0] {
	case "create":
		return handleCreate(ctx, store, args[1:])
	case "set-password":
		return handleSetPassword(ctx, store, args[1:])
	case "exists":
		return handleExists(ctx, store, args[1:])
	default:
		return usageError(fmt.Errorf("unknown command %q", args[0]))
	}
}

func handleCreate(ctx context.Context, store *credentials.Store, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	username := fs.String("username", "", "username to create")
	if err := fs.Parse(args); err != nil {
		return usageError(err)
	}
	if *username == "" {
		return usageError(errors.New("-username is required"))
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}
	if err := store.Create(ctx, *username, password); err != nil {
		return err
	}
	fmt.Printf("created user %q\n", *username)
	return nil
}

func handleSetPassword(ctx context.Context, store *credentials.Store, args []string) error {
	fs := flag.NewFlagSet("set-password", flag.ContinueOnError)
	username := fs.String("username", "", "username to update")
	if err := fs.Parse(args); err != nil {
		return usageError(err)
	}
	if *username == "" {
		return usageError(errors.New("-username is required"))
	}

	password, err := readPassword("New password: ")
	if err != nil {
		return err
	}
	if err := store.SetPassword(ctx, *username, password); err != nil {
		return err
	}
	fmt.Printf("updated password for %q\n", *username)
	return nil
}

func handleExists(ctx context.Context, store *credentials.Store, args []string) error {
	fs := flag.NewFlagSet("exists", flag.ContinueOnError)
	username := fs.String("username", "", "username to check")
	if err := fs.Parse(args); err != nil {
		return usageError(err)
	}
	if *username == "" {
		return usageError(errors.New("-username is required"))
	}

	ok, err := store.Exists(ctx, *username)
	if err != nil {
		return err
	}
	fmt.Println(ok)
	return nil
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	return string(raw), nil
}

func usageError(err error) error {
	fmt.Fprintln(os.Stderr, "usage: useradmin <create|set-password|exists> -username <name>")
	return err
}
