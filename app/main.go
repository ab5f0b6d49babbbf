package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Guyuepp/community-board/domain"
	"github.com/Guyuepp/community-board/internal/config"
	"github.com/Guyuepp/community-board/internal/repository/cache"
	"github.com/Guyuepp/community-board/internal/repository/memory"
	myRedisCache "github.com/Guyuepp/community-board/internal/repository/redis"
	"github.com/Guyuepp/community-board/internal/rest"
	"github.com/Guyuepp/community-board/internal/rest/middleware"
	"github.com/Guyuepp/community-board/internal/rest/request"
	"github.com/Guyuepp/community-board/internal/usecase/author"
	"github.com/Guyuepp/community-board/internal/usecase/comment"
	"github.com/Guyuepp/community-board/internal/usecase/post"
	"github.com/Guyuepp/community-board/internal/usecase/reaction"
	"github.com/Guyuepp/community-board/internal/usecase/user"
	"github.com/Guyuepp/community-board/internal/workers"
)

func main() {
	cfg := config.Load()
	if cfg.AppEnv != "production" {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := initTracer(ctx, cfg)
	if err != nil {
		logrus.Fatalf("otel exporter: %v", err)
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(c); err != nil {
			logrus.Errorf("failed to flush traces: %v", err)
		}
	}()

	// prepare store
	st, err := openStores(ctx, cfg)
	if err != nil {
		logrus.Fatal(err)
	}
	defer st.close()

	// prepare cache
	var (
		backend   domain.CacheBackend
		bloomRepo domain.BloomRepository
	)
	switch cfg.CacheBackend {
	case config.CacheMemory:
		backend = memory.NewCache()
	default:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Pass,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := client.Close(); err != nil {
				logrus.Errorf("got error when closing the cache connection: %v", err)
			}
		}()
		if err := client.Ping(ctx).Err(); err != nil {
			logrus.Fatalf("failed to open connection to cache: %v", err)
		}
		backend = myRedisCache.NewRedisCache(client)
		bloomRepo = myRedisCache.NewRedisBloomRepo(client, cache.Namespace(cfg.AppEnv), cfg.BloomFilterSize)
	}
	boardCache := cache.New(backend, cfg.AppEnv, cache.WithOpTimeout(cfg.CacheOpTimeout))

	// start worker
	var wg sync.WaitGroup
	reconciler := workers.NewCounterReconciler(st.counters, cfg.ReconcileEvery)
	wg.Add(1)
	go func() {
		defer wg.Done()
		reconciler.Start(ctx)
	}()

	// build service layer
	authorSvc := author.NewService(st.users, boardCache, cfg.AuthorTTL)
	reactionSvc := reaction.NewService(st.reactions, st.posts, st.comments, boardCache, cfg.ReactionTTL, reconciler)

	commentOpts := []comment.Option{
		comment.WithMaxDepth(cfg.CommentMaxDepth),
		comment.WithTTL(cfg.PostCommentsTTL),
		comment.WithReconciler(reconciler),
	}
	postOpts := []post.Option{post.WithTTL(cfg.PostDetailTTL)}
	if cfg.AggregationOn {
		postOpts = append(postOpts, post.WithPipeline(st.aggregator, cfg.AggregationLimit))
	}
	if bloomRepo != nil {
		commentOpts = append(commentOpts, comment.WithBloom(bloomRepo))
		postOpts = append(postOpts, post.WithBloom(bloomRepo))
	}

	commentSvc := comment.NewService(st.comments, st.posts, st.users, authorSvc, reactionSvc, boardCache, commentOpts...)
	postSvc := post.NewService(st.posts, st.users, authorSvc, commentSvc, reactionSvc, boardCache, postOpts...)
	userSvc := user.NewService(st.users, authorSvc)

	// prepare bloom filter
	if err := postSvc.InitBloomFilter(ctx); err != nil {
		logrus.Fatalf("failed to init bloom filter: %v", err)
	}

	// prepare gin
	if err := request.RegisterValidators(); err != nil {
		logrus.Fatalf("failed to register validators: %v", err)
	}
	route := gin.Default()
	route.Use(middleware.CORS())
	route.Use(middleware.SetRequestContextWithTimeout(cfg.ContextTimeout))
	route.Use(middleware.Metrics())

	route.GET("/metrics", gin.WrapH(promhttp.Handler()))
	route.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	rest.RegisterRoutes(route, rest.Handlers{
		Post:    rest.NewPostHandler(postSvc, reactionSvc),
		Comment: rest.NewCommentHandler(commentSvc, st.posts, reactionSvc),
		User:    rest.NewUserHandler(userSvc),
	}, middleware.OptionalAuth(cfg.JWTSecret), middleware.AuthMiddleware(cfg.JWTSecret))

	// start server
	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           otelhttp.NewHandler(route, "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logrus.Infof("Server is running on %s (store=%s cache=%s env=%s)", cfg.ServerAddress, cfg.StoreDriver, cfg.CacheBackend, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("listen: %s", err)
		}
	}()

	// shutdown
	<-ctx.Done()
	logrus.Info("Shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Waiting for worker to cleanup...")
	wg.Wait()

	logrus.Info("Server exiting")
}
