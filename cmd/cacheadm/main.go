// Package main provides an administrative CLI for inspecting and
// invalidating the on-disk upstream response cache.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sys3222/akshare-mcp-adapter/internal/cache"
	"github.com/sys3222/akshare-mcp-adapter/internal/config"
	"github.com/sys3222/akshare-mcp-adapter/internal/logging"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return usageError(errors.New("no command specified"))
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New("cacheadm", cfg.LogLevel, cfg.LogFormat)

	store, err := cache.NewStore(cache.Config{
		Root:            cfg.CacheRoot,
		CeilingBytes:    cfg.CacheCeilingByte,
		ServeStaleOnErr: cfg.ServeStaleOnErr,
	}, logger)
	if err != nil {
		return fmt.Errorf("open cache store: %w", err)
	}

	switch args[0] {
	case "invalidate":
		return handleInvalidate(store, args[1:])
	case "invalidate-interface":
		return handleInvalidateInterface(store, args[1:])
	default:
		return usageError(fmt.Errorf("unknown command %q", args[0]))
	}
}

func handleInvalidate(store *cache.Store, args []string) error {
	fs := flag.NewFlagSet("invalidate", flag.ContinueOnError)
	iface := fs.String("interface", "", "upstream interface name")
	paramsRaw := fs.String("params", "{}", "JSON object of interface parameters")
	if err := fs.Parse(args); err != nil {
		return usageError(err)
	}
	if *iface == "" {
		return usageError(errors.New("-interface is required"))
	}

	var params map[string]string
	if err := json.Unmarshal([]byte(*paramsRaw), &params); err != nil {
		return fmt.Errorf("parse -params: %w", err)
	}

	if err := store.Invalidate(*iface, params); err != nil {
		return err
	}
	fmt.Printf("invalidated cache entry for %s\n", *iface)
	return nil
}

func handleInvalidateInterface(store *cache.Store, args []string) error {
	fs := flag.NewFlagSet("invalidate-interface", flag.ContinueOnError)
	iface := fs.String("interface", "", "upstream interface name")
	if err := fs.Parse(args); err != nil {
		return usageError(err)
	}
	if *iface == "" {
		return usageError(errors.New("-interface is required"))
	}

	if err := store.InvalidateInterface(*iface); err != nil {
		return err
	}
	fmt.Printf("invalidated all cache entries for %s\n", *iface)
	return nil
}

func usageError(err error) error {
	fmt.Fprintln(os.Stderr, strings.TrimSpace(`
usage:
  cacheadm invalidate -interface <name> [-params '{"key":"value"}']
  cacheadm invalidate-interface -interface <name>
`))
	return err
}
