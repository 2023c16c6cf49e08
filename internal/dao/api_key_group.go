package dao

import (
	"github.com/iimeta/fastrelay/internal/model/entity"
	"github.com/iimeta/fastrelay/utility/db"
)

type ApiKeyGroupDao struct {
	*MongoDB[entity.ApiKeyGroup]
}

func NewApiKeyGroupDao(database ...string) *ApiKeyGroupDao {

	if len(database) == 0 {
		database = append(database, db.DefaultDatabase)
	}

	return &ApiKeyGroupDao{
		MongoDB: NewMongoDB[entity.ApiKeyGroup](database[0], API_KEY_GROUP),
	}
}
