package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/clusterwiki/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupPageServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:page-service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.Open(dsn, db.Options{LogLevel: logger.Silent})
	require.NoError(t, err, "open test database")
	t.Cleanup(func() {
		_ = db.Close(gdb)
	})
	return gdb
}
