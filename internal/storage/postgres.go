package storage

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newPostgresDialector(dataSourceName string) gorm.Dialector {
	return postgres.New(postgres.Config{
		DSN:                  dataSourceName,
		PreferSimpleProtocol: true,
	})
}
