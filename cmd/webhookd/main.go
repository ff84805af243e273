// Command webhookd runs a local stand-in for the PixNDrive webhook backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/NicolasHaas/pixndrive/pkg/logging"
	"github.com/NicolasHaas/pixndrive/pkg/version"
	"github.com/NicolasHaas/pixndrive/pkg/webhook"
)

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	cfg := webhook.DefaultConfig()
	env := logging.FromEnv()

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP bind address")
	flag.StringVar(&cfg.PublicURL, "public-url", "", "Base URL used in returned file URLs (derived from the request if empty)")
	flag.StringVar(&cfg.AccountsFile, "accounts", "", "YAML file defining accounts (open mode if empty)")
	flag.BoolVar(&cfg.Open, "open", false, "Accept any well-formed credentials, creating accounts on first login")
	flag.Int64Var(&cfg.MaxUploadBytes, "max-upload", cfg.MaxUploadBytes, "Largest accepted upload body in bytes")
	exportAccounts := flag.Bool("export-accounts", false, "Print the accounts file without passwords and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")

	logLevel := flag.String("log-level", env.Level, "Log level: "+logging.LevelNames())
	logFormat := flag.String("log-format", env.Format, "Log format: text or json")
	flag.Parse()

	if *showVersion {
		fmt.Println("webhookd", version.Full())
		return
	}

	if err := logging.Setup(logging.Options{
		Level:  *logLevel,
		Format: *logFormat,
		Output: os.Stdout,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}

	var accounts []webhook.Account
	if cfg.AccountsFile != "" {
		entries, err := webhook.LoadAccountsFromYAML(cfg.AccountsFile)
		if err != nil {
			slog.Error("load accounts", "err", err)
			os.Exit(1)
		}
		accounts, err = webhook.HashAccounts(entries)
		if err != nil {
			slog.Error("hash accounts", "err", err)
			os.Exit(1)
		}
	}

	if *exportAccounts {
		data, err := webhook.ExportAccountsYAML(accounts)
		if err != nil {
			slog.Error("export accounts", "err", err)
			os.Exit(1)
		}
		fmt.Print(string(data))
		return
	}

	srv, err := webhook.New(cfg, accounts)
	if err != nil {
		slog.Error("create server", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
