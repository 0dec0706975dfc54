package repository

import (
	"fmt"
	"strings"

	sqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenInMemory returns a migrated store over a private in-memory SQLite
// database. Each name gets its own database.
func OpenInMemory(name string) (*Store, error) {
	name = strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(name)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	// one connection keeps the database alive and serializes writers
	return openSQLite(dsn, 1)
}

// OpenFile returns a migrated store over a SQLite file. Transactions take the
// write lock when they begin and wait up to five seconds for it, so
// concurrent callers queue instead of failing with SQLITE_BUSY.
func OpenFile(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL", path)
	return openSQLite(dsn, 4)
}

func openSQLite(dsn string, maxConns int) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxConns)

	store := New(db)
	if err := store.Migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
