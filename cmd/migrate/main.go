// Command migrate applies the schema and, with -seed, inserts the
// reference departments, halls and an initial admin account.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/hall-booking/internal/config"
	"github.com/iliyamo/hall-booking/internal/database"
	"github.com/iliyamo/hall-booking/internal/model"
	"github.com/iliyamo/hall-booking/internal/repository"
)

func main() {
	seed := flag.Bool("seed", false, "insert reference data and the admin account")
	flag.Parse()

	db, err := database.Open(config.LoadDatabase())
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		logrus.WithError(err).Fatal("migration failed")
	}
	logrus.WithField("statements", len(database.Statements())).Info("schema applied")

	if !*seed {
		return
	}
	if err := database.Seed(ctx, db); err != nil {
		logrus.WithError(err).Fatal("seeding reference data failed")
	}

	email := os.Getenv("SEED_ADMIN_EMAIL")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		logrus.Info("SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD unset, skipping admin account")
		return
	}
	name := os.Getenv("SEED_ADMIN_NAME")
	if name == "" {
		name = "Administrator"
	}
	id, err := repository.NewUserRepo(db).Create(ctx, repository.NewAccount{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     model.RoleAdmin,
	}, 12)
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		logrus.WithField("email", email).Info("admin account already exists")
	case err != nil:
		logrus.WithError(err).Fatal("creating admin account failed")
	default:
		logrus.WithFields(logrus.Fields{"id": id, "email": email}).Info("admin account created")
	}
}
