package dao

import (
	"github.com/iimeta/fastrelay/internal/model/entity"
	"github.com/iimeta/fastrelay/utility/db"
)

type ApiKeyGroupEventDao struct {
	*MongoDB[entity.ApiKeyGroupEvent]
}

func NewApiKeyGroupEventDao(database ...string) *ApiKeyGroupEventDao {

	if len(database) == 0 {
		database = append(database, db.DefaultDatabase)
	}

	return &ApiKeyGroupEventDao{
		MongoDB: NewMongoDB[entity.ApiKeyGroupEvent](database[0], API_KEY_GROUP_EVENT),
	}
}
