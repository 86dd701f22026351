package market

import (
	"fmt"
	"strings"
	"testing"

	"github.com/royceleh/polly/internal/blob"
	"github.com/royceleh/polly/internal/db"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(conn))
	return conn
}

func newTestService(t *testing.T, opts ...Option) (*Service, *gorm.DB, *blob.MemoryStore) {
	t.Helper()
	conn := openTestDB(t)
	blobs := blob.NewMemoryStore()
	return New(conn, blobs, opts...), conn, blobs
}

func createUser(t *testing.T, conn *gorm.DB, name string) uint {
	t.Helper()
	user := db.User{Name: name}
	require.NoError(t, conn.Create(&user).Error)
	return user.ID
}

func createReward(t *testing.T, conn *gorm.DB, name string, cost int, active bool) uint {
	t.Helper()
	reward := db.Reward{Name: name, PointsCost: cost, Active: active}
	require.NoError(t, conn.Create(&reward).Error)
	// GORM substitutes the column default for zero-value fields on create,
	// so active=false must be written with an explicit update.
	if !active {
		require.NoError(t, conn.Model(&db.Reward{}).Where("id = ?", reward.ID).Update("active", false).Error)
	}
	return reward.ID
}
