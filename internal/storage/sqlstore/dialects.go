package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm/logger"
)

// NewPostgres создает хранилище PostgreSQL.
func NewPostgres(dsn string) (*Store, error) {
	return Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), logger.Info)
}

// NewSQLite создает хранилище в файле SQLite (или в памяти для "file::memory:").
// Внешние ключи включаются явно, иначе каскадное удаление не работает.
func NewSQLite(path string) (*Store, error) {
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&_foreign_keys=on"
	} else {
		dsn += "?_foreign_keys=on"
	}

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite допускает одного писателя, а база в памяти живет в единственном соединении
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	s, err := Open(&sqlite.Dialector{Conn: sqlDB}, logger.Warn)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}
