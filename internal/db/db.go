package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/chatterbox-app/chatterbox/internal/chat"
)

// Open opens (or creates) the local sqlite database and migrates the schema.
func Open(path string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(&chat.Chat{}, &chat.Message{}); err != nil {
		return nil, err
	}
	return gdb, nil
}
