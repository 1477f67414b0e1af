package testinfra

import (
	"coilflow/persistence"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
)

type TestDatabase struct {
	TestDatabaseName string
	DS               *persistence.DataSourceManager

	mysql bool
}

// StartTestDatabase connects to mysql when TEST_MYSQL_SERVICE is set, otherwise to a private in-memory sqlite database.
func StartTestDatabase(baseName string) *TestDatabase {
	if os.Getenv("TEST_MYSQL_SERVICE") != "" {
		return StartMysqlTestDatabase(baseName)
	}
	return StartSqliteTestDatabase(baseName)
}

func StopTestDatabase(testDatabase *TestDatabase) {
	if testDatabase == nil || testDatabase.DS == nil {
		return
	}
	if testDatabase.mysql {
		StopMysqlTestDatabase(testDatabase)
		return
	}
	testDatabase.DS.Stop()
}

func StartSqliteTestDatabase(baseName string) *TestDatabase {
	databaseName := testDatabaseName(baseName)
	dbConfig := &persistence.DatabaseConfig{
		DriverType: "sqlite3", DriverArgs: "file:" + databaseName + "?mode=memory&cache=shared&_busy_timeout=5000",
	}
	return start(databaseName, dbConfig, false)
}

// StartMysqlTestDatabase TEST_MYSQL_SERVICE=root:root@(127.0.0.1:3306)
func StartMysqlTestDatabase(baseName string) *TestDatabase {
	mysqlSvc := os.Getenv("TEST_MYSQL_SERVICE")
	if mysqlSvc == "" {
		mysqlSvc = "root:root@(127.0.0.1:3306)"
	}
	databaseName := testDatabaseName(baseName)

	dbConfig := &persistence.DatabaseConfig{
		DriverType: "mysql", DriverArgs: mysqlSvc + "/" + databaseName + "?charset=utf8mb4&parseTime=True&loc=UTC&timeout=5s",
	}

	// create database (no conflict)
	if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
		log.Fatalf("failed to prepare database %v\n", err)
	}
	return start(databaseName, dbConfig, true)
}

func StopMysqlTestDatabase(testDatabase *TestDatabase) {
	if testDatabase != nil && testDatabase.DS != nil {
		if testDatabase.DS.GormDB() != nil {
			if err := testDatabase.DS.GormDB().Exec("DROP DATABASE " + testDatabase.TestDatabaseName).Error; err != nil {
				log.Println("failed to drop test database: " + testDatabase.TestDatabaseName)
			} else {
				log.Println("test database " + testDatabase.TestDatabaseName + " dropped")
			}
		}

		// close connection
		testDatabase.DS.Stop()
	}
}

func start(databaseName string, dbConfig *persistence.DatabaseConfig, mysql bool) *TestDatabase {
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	// connect
	if err := ds.Start(); err != nil {
		defer ds.Stop()
		log.Fatalf("database connection failed %v\n", err)
	}
	return &TestDatabase{TestDatabaseName: databaseName, DS: ds, mysql: mysql}
}

func testDatabaseName(baseName string) string {
	return baseName + "_test_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}
