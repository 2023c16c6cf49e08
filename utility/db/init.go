package db

import (
	"context"

	"github.com/gogf/gf/v2/errors/gerror"
	"github.com/iimeta/fastrelay/internal/config"
	"github.com/iimeta/fastrelay/utility/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	client          *mongo.Client
	DefaultDatabase string
)

// Init 连接MongoDB, 仅在存储驱动为mongodb时调用
func Init(ctx context.Context) error {

	uri, err := config.Get(ctx, "mongodb.uri")
	if err != nil {
		return err
	}

	if uri.IsEmpty() {
		return gerror.New("mongodb.uri is empty")
	}

	if client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri.String())); err != nil {
		return gerror.Wrap(err, "MongoDB connect")
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		return gerror.Wrap(err, "MongoDB ping")
	}

	logger.Info(ctx, "MongoDB Successfully connected and pinged.")

	DefaultDatabase = config.GetString(ctx, "mongodb.database", "fastrelay")

	return nil
}

func Close(ctx context.Context) {
	if client == nil {
		return
	}
	if err := client.Disconnect(ctx); err != nil {
		logger.Error(ctx, err)
	}
}
