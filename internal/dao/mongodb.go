package dao

import (
	"context"

	"github.com/gogf/gf/v2/os/gtime"
	"github.com/gogf/gf/v2/util/gconv"
	"github.com/iimeta/fastrelay/utility/db"
	"github.com/iimeta/fastrelay/utility/util"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type IMongoDB interface{}

type MongoDB[T IMongoDB] struct {
	*db.MongoDB
}

func NewMongoDB[T IMongoDB](database, collection string) *MongoDB[T] {
	return &MongoDB[T]{
		MongoDB: &db.MongoDB{
			Database:   database,
			Collection: collection,
		}}
}

func (m *MongoDB[T]) with(filter map[string]interface{}) *db.MongoDB {
	return &db.MongoDB{
		Database:   m.Database,
		Collection: m.Collection,
		Filter:     filter,
	}
}

func (m *MongoDB[T]) Find(ctx context.Context, filter map[string]interface{}, sortFields ...string) ([]*T, error) {

	var result []*T
	if err := m.with(filter).Find(ctx, &result, sortFields...); err != nil {
		return nil, err
	}

	return result, nil
}

// FindOne 无匹配文档返回nil, nil
func (m *MongoDB[T]) FindOne(ctx context.Context, filter map[string]interface{}, sortFields ...string) (*T, error) {

	var result *T
	if err := m.with(filter).FindOne(ctx, &result, sortFields...); err != nil {
		if db.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}

	return result, nil
}

func (m *MongoDB[T]) FindById(ctx context.Context, id interface{}) (*T, error) {
	return m.FindOne(ctx, bson.M{"_id": id})
}

func (m *MongoDB[T]) FindByIds(ctx context.Context, ids interface{}, sortFields ...string) ([]*T, error) {
	return m.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, sortFields...)
}

func (m *MongoDB[T]) Insert(ctx context.Context, document interface{}) (string, error) {

	bytes, err := bson.Marshal(document)
	if err != nil {
		return "", err
	}

	value := bson.M{}
	if err = bson.Unmarshal(bytes, &value); err != nil {
		return "", err
	}

	// 统一主键成int类型的string格式, 雪花ID
	if value["_id"] == nil || value["_id"] == "" {
		value["_id"] = util.GenerateId()
	}

	if value["created_at"] == nil || gconv.Int64(value["created_at"]) == 0 {
		value["created_at"] = gtime.TimestampMilli()
	}

	id, err := m.with(nil).InsertOne(ctx, value)
	if err != nil {
		return "", err
	}

	return gconv.String(id), nil
}

func (m *MongoDB[T]) UpdateById(ctx context.Context, id, update interface{}) error {
	return m.UpdateOne(ctx, bson.M{"_id": id}, update)
}

// UpdateOne update不含操作符时按$set处理, 并补充updated_at
func (m *MongoDB[T]) UpdateOne(ctx context.Context, filter map[string]interface{}, update interface{}, isUpsert ...bool) error {

	opt := options.Update()
	if len(isUpsert) > 0 && isUpsert[0] {
		opt.SetUpsert(true)
	}

	return m.with(filter).UpdateOne(ctx, withUpdatedAt(update), opt)
}

func (m *MongoDB[T]) UpdateMany(ctx context.Context, filter map[string]interface{}, update interface{}) (int64, error) {
	return m.with(filter).UpdateMany(ctx, withUpdatedAt(update))
}

// FindOneAndUpdate 返回更新后的文档, 无匹配文档返回nil, nil
func (m *MongoDB[T]) FindOneAndUpdate(ctx context.Context, filter map[string]interface{}, update interface{}) (*T, error) {

	var result *T
	if err := m.with(filter).FindOneAndUpdate(ctx, update, &result, options.FindOneAndUpdate().SetReturnDocument(options.After)); err != nil {
		if db.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}

	return result, nil
}

func withUpdatedAt(update interface{}) interface{} {

	value, ok := update.(bson.M)
	if !ok {
		return update
	}

	containKey := false
	for key := range value {
		if len(key) > 0 && key[0] == '$' {
			containKey = true
			break
		}
	}

	if !containKey {
		value["updated_at"] = gtime.TimestampMilli()
		return bson.M{"$set": value}
	}

	if value["$set"] == nil {
		value["$set"] = bson.M{}
	}

	set, ok := value["$set"].(bson.M)
	if !ok {
		return value
	}

	if set["updated_at"] == nil {
		set["updated_at"] = gtime.TimestampMilli()
	}

	return value
}
