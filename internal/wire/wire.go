package wire

import (
	"Rankify/internal/api"
	"Rankify/internal/api/config"
	"Rankify/internal/api/handler"
	"Rankify/internal/job"
	"Rankify/internal/pkg/consts"
	"Rankify/internal/pkg/cron"
	"Rankify/internal/pkg/docstore"
	"Rankify/internal/pkg/kafka"
	"Rankify/internal/pkg/minio"
	"Rankify/internal/pkg/mongo"
	"Rankify/internal/pkg/redis"
	"Rankify/internal/pkg/security"
	"Rankify/internal/repository"
	"Rankify/internal/service"
	"context"
	"fmt"
	log "log/slog"

	"github.com/gin-gonic/gin"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router  *gin.Engine
	CronMgr *cron.Manager
	// KafkaManager 未启用 Kafka 时为 nil
	KafkaManager *kafka.ConsumerManager

	closers []func(ctx context.Context) error
}

// Close 按初始化的逆序释放外部连接
func (a *ApplicationContainer) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			log.Error("close resource failed", "err", err)
		}
	}
}

func BuildApplication(ctx context.Context, cfg *config.Config) (*ApplicationContainer, error) {
	app := &ApplicationContainer{}
	if err := assemble(ctx, cfg, app); err != nil {
		return nil, err
	}
	return app, nil
}

// assemble 任一组件初始化失败时，按逆序释放已建立的连接
func assemble(ctx context.Context, cfg *config.Config, app *ApplicationContainer) error {
	if err := build(ctx, cfg, app); err != nil {
		app.Close(context.WithoutCancel(ctx))
		return err
	}
	return nil
}

func build(ctx context.Context, cfg *config.Config, app *ApplicationContainer) error {
	store, err := buildStore(ctx, cfg, app)
	if err != nil {
		return err
	}
	if indexer, ok := store.(docstore.Indexer); ok {
		specs := append(repository.RankingIndexes(), repository.UserProfileIndexes()...)
		if err = indexer.EnsureIndexes(ctx, specs); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}

	rankingRepo := repository.NewRankingRepo(store)
	profileRepo := repository.NewUserProfileRepo(store)

	// 缓存与修复队列依赖 Redis，未启用时退化为单实例实现
	var (
		cache     service.RankingCache = service.NopCache
		edgeQueue job.EdgeQueue        = job.NewMemoryEdgeQueue()
		jobLock   job.Locker
	)
	if cfg.Redis.Enable {
		if err = redis.InitRedis(ctx, cfg.Redis); err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		app.closers = append(app.closers, func(context.Context) error { return redis.Close() })
		cache = redis.NewRankingCache(cfg.Cache.RankingTTL)
		edgeQueue = redis.NewRepairQueue()
		jobLock = redis.NewJobLock(consts.RepairJobLock, job.RepairTimeout)
	}

	var blobs service.BlobStore
	if cfg.MinIO.Enable {
		blobStore, err := minio.Init(ctx, cfg.MinIO)
		if err != nil {
			return fmt.Errorf("init minio: %w", err)
		}
		blobs = blobStore
	}

	var publisher service.EventPublisher = service.NopPublisher
	if cfg.Kafka.Enable {
		producer, err := kafka.NewEventProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("init kafka producer: %w", err)
		}
		app.closers = append(app.closers, func(context.Context) error { return producer.Close() })
		publisher = producer
	}

	rankingSvc := service.NewRankingService(rankingRepo,
		service.WithRankingCache(cache),
		service.WithEventPublisher(publisher),
		service.WithPageSizes(cfg.Catalog.DefaultPageSize, cfg.Catalog.MaxPageSize),
	)
	engagementSvc := service.NewEngagementService(rankingRepo, cache, publisher)
	graphSvc := service.NewSocialGraphService(profileRepo, edgeQueue, publisher)
	profileSvc := service.NewUserProfileService(profileRepo)
	mediaSvc := service.NewMediaService(blobs, cfg.Server.MaxUploadSize)

	if cfg.Kafka.Enable {
		app.KafkaManager, err = kafka.NewConsumerManager(cfg.Kafka, graphSvc)
		if err != nil {
			return fmt.Errorf("init kafka consumer: %w", err)
		}
	}

	repairJob := job.NewFollowRepairJob(graphSvc, edgeQueue, cfg.Repair.Concurrency)
	if jobLock != nil {
		repairJob.UseLock(jobLock)
	}
	app.CronMgr = cron.NewCronManager(cfg.Repair.Schedule, repairJob)

	handlers := &api.HandlersGroup{
		RankingHandler:    handler.NewRankingHandler(rankingSvc, mediaSvc),
		EngagementHandler: handler.NewEngagementHandler(engagementSvc),
		UserFollowHandler: handler.NewUserFollowHandler(graphSvc),
		ProfileHandler:    handler.NewProfileHandler(profileSvc, mediaSvc),
		MediaHandler:      handler.NewMediaHandler(mediaSvc),
		TokenValidator:    security.NewTokenValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
	}
	app.Router = api.SetupRouter(handlers)

	return nil
}

func buildStore(ctx context.Context, cfg *config.Config, app *ApplicationContainer) (docstore.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		db, err := mongo.InitMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("init mongo: %w", err)
		}
		app.closers = append(app.closers, func(ctx context.Context) error { return mongo.Close(ctx, db) })
		return mongo.NewDocStore(db), nil
	default:
		log.Warn("using in-memory document store, data is lost on restart")
		return docstore.NewMemoryStore(), nil
	}
}
