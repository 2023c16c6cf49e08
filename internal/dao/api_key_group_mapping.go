package dao

import (
	"github.com/iimeta/fastrelay/internal/model/entity"
	"github.com/iimeta/fastrelay/utility/db"
)

type ApiKeyGroupMappingDao struct {
	*MongoDB[entity.ApiKeyGroupMapping]
}

func NewApiKeyGroupMappingDao(database ...string) *ApiKeyGroupMappingDao {

	if len(database) == 0 {
		database = append(database, db.DefaultDatabase)
	}

	return &ApiKeyGroupMappingDao{
		MongoDB: NewMongoDB[entity.ApiKeyGroupMapping](database[0], API_KEY_GROUP_MAPPING),
	}
}
