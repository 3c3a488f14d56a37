package db

import (
	"github.com/ulternae/kcchat/util"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Queries struct {
	DB *gorm.DB
}

func NewQueries(config *util.Config) (*Queries, error) {
	// Connect to database. TranslateError turns driver unique-constraint
	// failures into gorm.ErrDuplicatedKey so callers can map them to
	// conflict responses.
	DB, err := gorm.Open(postgres.Open(config.DBConn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	return &Queries{
		DB: DB,
	}, nil
}

func (queries *Queries) AutoMigration() error {
	return queries.DB.AutoMigrate(
		&User{},
		&Avatar{},
		&Settings{},
		&Friendship{},
		&Group{},
		&GroupMember{},
		&Chat{},
		&ChatParticipant{},
		&GroupChat{},
		&Message{},
		&Notification{},
	)
}
