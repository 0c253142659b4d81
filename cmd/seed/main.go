// AngelaMos | 2026
// main.go

// Command seed provisions the first administrator. Registration is
// invite-only and invites come from admins, so a fresh deployment needs
// one account created out of band.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/carterperez-dev/curator-backend/internal/config"
	"github.com/carterperez-dev/curator-backend/internal/core"
	"github.com/carterperez-dev/curator-backend/internal/curation"
	"github.com/carterperez-dev/curator-backend/internal/user"
)

const passwordEnv = "SEED_ADMIN_PASSWORD"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	email := flag.String("email", "", "admin email")
	name := flag.String("name", "Administrator", "admin display name")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := run(context.Background(), logger, *configPath, *email, *name); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, email, name string) error {
	password := os.Getenv(passwordEnv)
	if email == "" || len(password) < 8 {
		return fmt.Errorf("-email and %s (8+ characters) are required", passwordEnv)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // process exits right after

	clock := core.SystemClock()
	svc := user.NewService(
		user.NewRepository(db.DB),
		curation.NewService(db.DB, clock, core.NewID, logger),
		clock,
		core.NewID,
		logger,
	)

	hash, err := core.HashPassword(password)
	if err != nil {
		return err
	}

	u, err := svc.CreateAdmin(ctx, email, hash, name)
	if errors.Is(err, core.ErrDuplicateKey) {
		logger.Info("account already exists", "email", core.FoldEmail(email))
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("admin created", "user_id", u.ID, "email", u.Email)
	return nil
}
