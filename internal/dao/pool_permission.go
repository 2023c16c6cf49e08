package dao

import (
	"github.com/iimeta/fastrelay/internal/model/entity"
	"github.com/iimeta/fastrelay/utility/db"
)

type ApiKeyAccountPoolPermissionDao struct {
	*MongoDB[entity.ApiKeyAccountPoolPermission]
}

func NewApiKeyAccountPoolPermissionDao(database ...string) *ApiKeyAccountPoolPermissionDao {

	if len(database) == 0 {
		database = append(database, db.DefaultDatabase)
	}

	return &ApiKeyAccountPoolPermissionDao{
		MongoDB: NewMongoDB[entity.ApiKeyAccountPoolPermission](database[0], ACCOUNT_POOL_PERMISSION),
	}
}
