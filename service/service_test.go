package service

import (
	"testing"

	"fly-messenger/database"
	"fly-messenger/model"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	database.Migrate(db)
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()

	user := &model.User{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "hash",
		FirstName:   username,
		Role:        "user",
		IsActivated: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
