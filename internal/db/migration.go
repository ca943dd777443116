package db

import (
	"github.com/engramhq/engram/entity"
	"github.com/engramhq/engram/errors"
	"gorm.io/gorm"
)

func AutoMigrate(db *gorm.DB) error {
	return errors.WithStack(db.AutoMigrate(
		&entity.Memory{},
		&entity.Entity{},
		&entity.Relation{},
		&entity.APIKey{},
		&entity.UsageCounter{},
	))
}

func DropAll(db *gorm.DB) error {
	return errors.WithStack(db.Migrator().DropTable(
		&entity.UsageCounter{},
		&entity.APIKey{},
		&entity.Relation{},
		&entity.Entity{},
		&entity.Memory{},
	))
}
