package persistence

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestDatabaseConfigValidate(t *testing.T) {
	RegisterTestingT(t)

	Expect((&DatabaseConfig{DriverType: "mysql", DriverArgs: "root:root@(127.0.0.1:3306)/coilflow"}).Validate()).To(Succeed())
	Expect((&DatabaseConfig{DriverType: "sqlite3", DriverArgs: "file:coilflow.db"}).Validate()).To(Succeed())
	Expect((&DatabaseConfig{DriverType: "postgres", DriverArgs: "x"}).Validate()).To(MatchError("unsupported database driver: postgres"))
	Expect((&DatabaseConfig{DriverType: "mysql"}).Validate()).To(MatchError("database driver args is required"))
}

func TestPrepareMysqlDatabaseRejectsDsnWithoutDatabase(t *testing.T) {
	RegisterTestingT(t)

	Expect(PrepareMysqlDatabase("root:root@(127.0.0.1:3306)/")).To(MatchError("database name is missing in dsn"))
	Expect(PrepareMysqlDatabase("not a dsn")).To(HaveOccurred())
}
