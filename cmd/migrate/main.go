// Command migrate manages the database schema and bootstraps admin
// accounts.
//
//	migrate [up|down|status|version|redo|reset]
//	migrate create-admin --name Ops --email ops@example.com --password ...
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/iliyamo/equipment-lending/internal/config"
	"github.com/iliyamo/equipment-lending/internal/database"
	"github.com/iliyamo/equipment-lending/internal/logger"
	"github.com/iliyamo/equipment-lending/internal/model"
	"github.com/iliyamo/equipment-lending/internal/repository"
)

func main() {
	fs := pflag.NewFlagSet("migrate", pflag.ExitOnError)
	timeout := fs.Duration("timeout", 2*time.Minute, "overall deadline")
	name := fs.String("name", "", "admin display name (create-admin)")
	email := fs.String("email", "", "admin email (create-admin)")
	password := fs.String("password", "", "admin password (create-admin)")
	cost := fs.Int("bcrypt-cost", 12, "bcrypt cost (create-admin)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate [flags] <up|down|status|version|redo|reset|create-admin> [args]")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	_ = config.LoadDotEnv()
	log, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	args := fs.Args()
	if len(args) == 0 {
		args = []string{"up"}
	}

	dbc, err := config.LoadDB()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}
	db, err := database.Open(dbc)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch args[0] {
	case "create-admin":
		if *name == "" || *email == "" || len(*password) < 8 {
			log.Fatal("create-admin needs --name, --email and a --password of at least 8 characters")
		}
		id, err := repository.NewUserRepo(db).Create(ctx, *name, *email, *password, model.RoleAdmin, *cost)
		if errors.Is(err, repository.ErrEmailExists) {
			log.Fatal("email already registered", zap.String("email", *email))
		}
		if err != nil {
			log.Fatal("create admin", zap.Error(err))
		}
		log.Info("admin created", zap.Uint64("id", id), zap.String("email", *email))
	default:
		if err := database.RunGoose(ctx, db, args[0], args[1:]...); err != nil {
			log.Fatal("goose", zap.String("command", args[0]), zap.Error(err))
		}
		log.Info("goose done", zap.String("command", args[0]))
	}
}
