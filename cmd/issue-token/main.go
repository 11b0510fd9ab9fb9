// Command issue-token prints a bearer token for a seeded user.
//
//	issue-token -email robert.taylor@company.com
//	issue-token -user 7
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/config"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/infrastructure/auth"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/repository"
	"github.com/garyjia/expense-approval/pkg/database"
	"github.com/garyjia/expense-approval/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	userID := flag.Int64("user", 0, "user id")
	email := flag.String("email", "", "user email")
	flag.Parse()

	if err := run(*configPath, *userID, *email); err != nil {
		fmt.Fprintf(os.Stderr, "issue-token: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, userID int64, email string) error {
	if (userID == 0) == (email == "") {
		return errors.New("exactly one of -user or -email is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is not set")
	}

	logger, err := utils.NewCLILogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.New(database.Config{Path: cfg.Database.Path, MaxOpenConns: 1, BusyTimeout: cfg.Database.BusyTimeout}, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// the seeded users live in the migrations
	if err := database.NewMigrator(db, logger).RunMigrations(database.EmbeddedMigrations()); err != nil {
		return err
	}

	user, err := lookup(context.Background(), repository.NewUserRepository(db.DB, logger), userID, email)
	if err != nil {
		return err
	}

	token, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL).Issue(user)
	if err != nil {
		return err
	}

	logger.Debug("Issued token", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	fmt.Println(token)
	return nil
}

func lookup(ctx context.Context, users *repository.UserRepository, id int64, email string) (*entity.User, error) {
	var (
		user *entity.User
		err  error
	)
	if email != "" {
		normalized, verr := utils.NormalizeEmail(email)
		if verr != nil {
			return nil, verr
		}
		user, err = users.GetByEmail(ctx, normalized)
	} else {
		user, err = users.GetByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}
	return user, nil
}
