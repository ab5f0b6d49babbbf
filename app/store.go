package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/config"
	"github.com/Guyuepp/community-board/internal/repository/memory"
	mongoRepo "github.com/Guyuepp/community-board/internal/repository/mongo"
	mysqlRepo "github.com/Guyuepp/community-board/internal/repository/mysql"
)

const (
	dbMaxRetry         = 10
	dbRetryIntervalSec = 2
)

// stores is the set of repositories one backend provides.
type stores struct {
	users      domain.UserRepository
	posts      domain.PostRepository
	comments   domain.CommentRepository
	reactions  domain.ReactionRepository
	counters   domain.CounterRepository
	aggregator domain.PostAggregator
	close      func()
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		s := memory.New()
		return stores{
			users:      s.Users(),
			posts:      s.Posts(),
			comments:   s.Comments(),
			reactions:  s.Reactions(),
			counters:   s.Reactions(),
			aggregator: s.Aggregator(),
			close:      func() {},
		}, nil
	case config.StoreMongo:
		return openMongo(ctx, cfg)
	case config.StoreMySQL:
		return openMySQL(cfg)
	default:
		return stores{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func openMongo(ctx context.Context, cfg config.Config) (stores, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return stores{}, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return stores{}, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(cfg.Mongo.Database)
	if err := mongoRepo.EnsureIndexes(ctx, db); err != nil {
		return stores{}, fmt.Errorf("ensure mongo indexes: %w", err)
	}

	reactions := mongoRepo.NewReactionRepository(db)
	return stores{
		users:      mongoRepo.NewUserRepository(db),
		posts:      mongoRepo.NewPostRepository(db),
		comments:   mongoRepo.NewCommentRepository(db),
		reactions:  reactions,
		counters:   reactions,
		aggregator: mongoRepo.NewPostAggregator(db),
		close: func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logrus.Errorf("got error when closing the mongo connection: %v", err)
			}
		},
	}, nil
}

func openMySQL(cfg config.Config) (stores, error) {
	var (
		db  *gorm.DB
		err error
	)

	for i := range dbMaxRetry {
		db, err = gorm.Open(mysql.Open(cfg.MySQL.DSN()), &gorm.Config{})
		if err != nil {
			logrus.Warnf("failed to open connection to database (attempt %d/%d): %v", i+1, dbMaxRetry, err)
		} else {
			sqlDB, dbErr := db.DB()
			if dbErr != nil {
				err = dbErr
				logrus.Warnf("failed to get sql.DB from gorm.DB (attempt %d/%d): %v", i+1, dbMaxRetry, err)
				continue
			}
			err = sqlDB.Ping()
			if err == nil {
				break
			}
			logrus.Warnf("failed to ping database (attempt %d/%d): %v", i+1, dbMaxRetry, err)
			_ = sqlDB.Close()
		}

		time.Sleep(dbRetryIntervalSec * time.Second)
	}
	if err != nil {
		return stores{}, fmt.Errorf("could not connect to database after retries: %w", err)
	}

	if cfg.AutoMigrate {
		if err := mysqlRepo.Migrate(db); err != nil {
			return stores{}, fmt.Errorf("migrate: %w", err)
		}
	}

	reactions := mysqlRepo.NewReactionRepository(db)
	return stores{
		users:      mysqlRepo.NewUserRepository(db),
		posts:      mysqlRepo.NewPostRepository(db),
		comments:   mysqlRepo.NewCommentRepository(db),
		reactions:  reactions,
		counters:   reactions,
		aggregator: mysqlRepo.NewPostAggregator(db),
		close: func() {
			sqlDB, err := db.DB()
			if err != nil {
				logrus.Errorf("got error when getting sql.DB from gorm.DB: %v", err)
				return
			}
			if err := sqlDB.Close(); err != nil {
				logrus.Errorf("got error when closing the DB connection: %v", err)
			}
		},
	}, nil
}
