package database

import (
	"fmt"

	"fly-messenger/config"
	"fly-messenger/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var Postgres *gorm.DB

func PostgresConnect() {
	var err error
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		config.Config("POSTGRES_HOST"),
		config.Config("POSTGRES_PORT"),
		config.Config("POSTGRES_USER"),
		config.Config("POSTGRES_PASSWORD"),
		config.Config("POSTGRES_DB"),
	)
	Postgres, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic("failed to connect postgres")
	}

	Migrate(Postgres)
}

// Migrate runs automigration for all models. Shared with the sqlite-backed
// test databases.
func Migrate(db *gorm.DB) {
	db.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.BlacklistEntry{},
		&model.Dialog{},
		&model.Message{},
	)
}
