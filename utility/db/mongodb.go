package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDB struct {
	Database   string
	Collection string
	Filter     map[string]interface{}
}

func (m *MongoDB) collection() *mongo.Collection {
	return client.Database(m.Database).Collection(m.Collection)
}

// 排序字段, "-"前缀为倒序
func sort(sortFields []string) bson.D {

	sort := bson.D{}
	for _, field := range sortFields {
		if field[:1] == "-" {
			sort = append(sort, bson.E{Key: field[1:], Value: -1})
		} else {
			sort = append(sort, bson.E{Key: field, Value: 1})
		}
	}

	return sort
}

func (m *MongoDB) Find(ctx context.Context, result interface{}, sortFields ...string) error {

	findOptions := options.Find()
	if len(sortFields) > 0 {
		findOptions.SetSort(sort(sortFields))
	}

	cursor, err := m.collection().Find(ctx, m.Filter, findOptions)
	if err != nil {
		return err
	}

	return cursor.All(ctx, result)
}

func (m *MongoDB) FindOne(ctx context.Context, result interface{}, sortFields ...string) error {

	findOneOptions := options.FindOne()
	if len(sortFields) > 0 {
		findOneOptions.SetSort(sort(sortFields))
	}

	return m.collection().FindOne(ctx, m.Filter, findOneOptions).Decode(result)
}

func (m *MongoDB) InsertOne(ctx context.Context, document interface{}) (interface{}, error) {

	result, err := m.collection().InsertOne(ctx, document)
	if err != nil {
		return nil, err
	}

	return result.InsertedID, nil
}

func (m *MongoDB) UpdateOne(ctx context.Context, update interface{}, opts ...*options.UpdateOptions) error {
	_, err := m.collection().UpdateOne(ctx, m.Filter, update, opts...)
	return err
}

func (m *MongoDB) UpdateMany(ctx context.Context, update interface{}, opts ...*options.UpdateOptions) (int64, error) {

	result, err := m.collection().UpdateMany(ctx, m.Filter, update, opts...)
	if err != nil {
		return 0, err
	}

	return result.ModifiedCount, nil
}

// FindOneAndUpdate update可以是更新文档或聚合管道
func (m *MongoDB) FindOneAndUpdate(ctx context.Context, update interface{}, result interface{}, opts ...*options.FindOneAndUpdateOptions) error {
	return m.collection().FindOneAndUpdate(ctx, m.Filter, update, opts...).Decode(result)
}

func IsNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
