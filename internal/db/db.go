package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultDatabaseFile 是未配置路径时使用的数据库文件名。
const DefaultDatabaseFile = "wiki.db"

// Options 控制数据库的打开方式。
type Options struct {
	// Plugins 在迁移之前注册，因此建表语句同样会被观测到。
	Plugins []gorm.Plugin
	// LogLevel 为空时使用 logger.Warn。
	LogLevel logger.LogLevel
}

// Open 打开 sqlite 数据库、注册插件并执行自动迁移。
// databasePath 为空时回退到 DefaultDatabaseFile。
func Open(databasePath string, opts Options) (*gorm.DB, error) {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = DefaultDatabaseFile
	}

	if !strings.HasPrefix(path, "file:") {
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
	}

	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}

	gdb, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, plugin := range opts.Plugins {
		if err := gdb.Use(plugin); err != nil {
			return nil, fmt.Errorf("register %s plugin: %w", plugin.Name(), err)
		}
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}

	return gdb, nil
}

// Migrate 确保 pages 表及其 slug 唯一索引存在。
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&Page{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Close 释放底层连接池。
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// dsn 为普通文件路径追加 busy timeout 与 WAL，写操作由 sqlite 串行化。
func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_journal_mode=WAL"
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
