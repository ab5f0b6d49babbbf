// Package config reads the service configuration from the environment. A .env
// file in the working directory is loaded first when present.
package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
	StoreMySQL  = "mysql"

	CacheRedis  = "redis"
	CacheMemory = "memory"
)

type Config struct {
	AppEnv         string
	ServerAddress  string
	ContextTimeout time.Duration
	JWTSecret      string

	StoreDriver string
	AutoMigrate bool
	MySQL       MySQL
	Mongo       Mongo

	CacheBackend     string
	Redis            Redis
	CacheOpTimeout   time.Duration
	AuthorTTL        time.Duration
	ReactionTTL      time.Duration
	PostDetailTTL    time.Duration
	PostCommentsTTL  time.Duration
	BloomFilterSize  uint64
	CommentMaxDepth  int
	ReconcileEvery   time.Duration
	AggregationOn    bool
	AggregationLimit time.Duration

	Otel Otel
}

type MySQL struct {
	Host, Port, User, Pass, Name string
}

// DSN keeps times in UTC and reports matched rather than changed rows, which
// the repositories use to tell a missing row from an unchanged one.
func (m MySQL) DSN() string {
	cfg := mysqldriver.NewConfig()
	cfg.User = m.User
	cfg.Passwd = m.Pass
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(m.Host, m.Port)
	cfg.DBName = m.Name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.ClientFoundRows = true
	return cfg.FormatDSN()
}

type Mongo struct {
	URI, Database string
}

type Redis struct {
	Host, Port, Pass string
	DB               int
}

func (r Redis) Addr() string {
	return net.JoinHostPort(r.Host, r.Port)
}

type Otel struct {
	Endpoint    string
	ServiceName string
	SampleRatio float64
}

// Load reads the configuration. Missing or malformed values fall back to their
// defaults with a log line.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.Warnf("failed to load .env file: %v", err)
	}

	return Config{
		AppEnv:         str("APP_ENV", "production"),
		ServerAddress:  str("SERVER_ADDRESS", ":9090"),
		ContextTimeout: seconds("CONTEXT_TIMEOUT", 30),
		JWTSecret:      os.Getenv("JWT_SECRET"),

		StoreDriver: strings.ToLower(str("STORE_DRIVER", StoreMySQL)),
		AutoMigrate: boolean("AUTO_MIGRATE", false),
		MySQL: MySQL{
			Host: str("DATABASE_HOST", "localhost"),
			Port: str("DATABASE_PORT", "3306"),
			User: os.Getenv("DATABASE_USER"),
			Pass: os.Getenv("DATABASE_PASS"),
			Name: str("DATABASE_NAME", "board"),
		},
		Mongo: Mongo{
			URI:      str("MONGO_URI", "mongodb://localhost:27017"),
			Database: str("MONGO_DATABASE", "board"),
		},

		CacheBackend: strings.ToLower(str("CACHE_BACKEND", CacheRedis)),
		Redis: Redis{
			Host: str("CACHE_HOST", "localhost"),
			Port: str("CACHE_PORT", "6379"),
			Pass: os.Getenv("CACHE_PASS"),
			DB:   integer("CACHE_DB", 0),
		},
		CacheOpTimeout:   millis("CACHE_OP_TIMEOUT_MS", 200),
		AuthorTTL:        seconds("AUTHOR_CACHE_TTL_SEC", 600),
		ReactionTTL:      seconds("REACTION_CACHE_TTL_SEC", 300),
		PostDetailTTL:    seconds("POST_DETAIL_CACHE_TTL_SEC", 300),
		PostCommentsTTL:  seconds("POST_COMMENTS_CACHE_TTL_SEC", 120),
		BloomFilterSize:  uint64(integer("BLOOM_FILTER_SIZE", 1<<20)),
		CommentMaxDepth:  integer("COMMENT_MAX_DEPTH", 3),
		ReconcileEvery:   seconds("RECONCILE_INTERVAL_SEC", 5),
		AggregationOn:    boolean("AGGREGATION_ENABLED", true),
		AggregationLimit: millis("AGGREGATION_TIMEOUT_MS", 500),

		Otel: Otel{
			Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName: str("OTEL_SERVICE_NAME", "community-board"),
			SampleRatio: ratio("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}
}

func str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logrus.Warnf("failed to parse %s, using default %d", key, def)
		return def
	}
	return n
}

func boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.Warnf("failed to parse %s, using default %t", key, def)
		return def
	}
	return b
}

func seconds(key string, def int) time.Duration {
	return time.Duration(integer(key, def)) * time.Second
}

func millis(key string, def int) time.Duration {
	return time.Duration(integer(key, def)) * time.Millisecond
}

func ratio(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || f > 1 {
		logrus.Warnf("failed to parse %s, using default %v", key, def)
		return def
	}
	return f
}
