package dao

import (
	"github.com/iimeta/fastrelay/internal/model/entity"
	"github.com/iimeta/fastrelay/utility/db"
)

type ApiKeyDao struct {
	*MongoDB[entity.ApiKey]
}

func NewApiKeyDao(database ...string) *ApiKeyDao {

	if len(database) == 0 {
		database = append(database, db.DefaultDatabase)
	}

	return &ApiKeyDao{
		MongoDB: NewMongoDB[entity.ApiKey](database[0], API_KEY),
	}
}
