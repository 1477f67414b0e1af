package persistence

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

type DatabaseConfig struct {
	DriverType   string
	DriverArgs   string
	MaxOpenConns int
	LogMode      bool
}

func (c *DatabaseConfig) Validate() error {
	switch c.DriverType {
	case "mysql", "sqlite3":
	default:
		return errors.New("unsupported database driver: " + c.DriverType)
	}
	if c.DriverArgs == "" {
		return errors.New("database driver args is required")
	}
	return nil
}

// PrepareMysqlDatabase creates the database named in the dsn if it does not exist yet.
func PrepareMysqlDatabase(driverArgs string) error {
	cfg, err := mysql.ParseDSN(driverArgs)
	if err != nil {
		return err
	}
	databaseName := cfg.DBName
	if databaseName == "" {
		return errors.New("database name is missing in dsn")
	}
	cfg.DBName = ""

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec("CREATE DATABASE IF NOT EXISTS `" + databaseName + "` DEFAULT CHARACTER SET utf8mb4"); err != nil {
		return err
	}
	logrus.Infof("database %s is ready", databaseName)
	return nil
}
