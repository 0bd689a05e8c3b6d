package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"LearnLoom/internal/app/server"
	"LearnLoom/internal/config"
	"LearnLoom/internal/delivery/http"
	"LearnLoom/internal/service"
	"LearnLoom/internal/service/catalog"
	"LearnLoom/internal/service/courselock"
	"LearnLoom/internal/service/editor"
	"LearnLoom/internal/service/importer"
	"LearnLoom/internal/service/progress"
	"LearnLoom/internal/service/quiz"
	"LearnLoom/internal/service/reward"
	"LearnLoom/internal/storage/elastic"
	"LearnLoom/internal/storage/minio_storage"
	"LearnLoom/internal/storage/postgres"
	"LearnLoom/internal/storage/redis_kv"
	"LearnLoom/pkg/logger"
)

func Run(cfg *config.Config) {
	log := logger.New(cfg.Env)
	log.Info("Starting with Env: " + cfg.Env)

	ctx := context.Background()

	pg, err := postgres.NewPostgresPool(cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.DBName)
	if err != nil {
		log.FatalErr("error connecting to database", err)
	}
	defer pg.Close()

	kvStore, err := redis_kv.New(ctx, cfg.Redis.URL)
	if err != nil {
		log.FatalErr("error connecting to redis", err)
	}
	defer kvStore.Close()

	minioStorage, err := minio_storage.NewMinioStorage(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL, cfg.Minio.Buckets)
	if err != nil {
		log.FatalErr("error connecting to minio", err)
	}
	mediaBucket := cfg.Minio.Buckets["media"]
	mediaStorage, err := minio_storage.NewCourseMediaStorage(minioStorage, mediaBucket.Name, mediaBucket.PresignTTL)
	if err != nil {
		log.FatalErr("error creating media storage", err)
	}

	esClient, err := elastic.NewElasticClient(cfg.ES.Password, cfg.ES.Hosts)
	if err != nil {
		log.FatalErr("error connecting to elasticsearch", err)
	}
	searchRepo := elastic.NewCourseSearchRepository(esClient, cfg.ES.Index)
	if err := searchRepo.CreateIndexIfNotExist(ctx); err != nil {
		log.FatalErr("error creating search index", err)
	}

	courseRepo := postgres.NewCoursePostgres(pg.Pool)
	enrollmentRepo := postgres.NewEnrollmentPostgres(pg.Pool)

	policy := reward.Policy{
		LessonXP:      cfg.Rewards.LessonXP,
		QuizXP:        cfg.Rewards.QuizXP,
		CourseBonusXP: cfg.Rewards.CourseBonusXP,
	}
	locks := courselock.NewRegistry()
	rewardService := reward.NewRewardService(log, kvStore, policy)
	progressService := progress.NewProgressService(log, courseRepo, kvStore, rewardService)
	quizService := quiz.NewQuizService(log, courseRepo, rewardService, progressService)
	editorService := editor.NewEditorService(log, courseRepo, progressService, locks)
	catalogService := catalog.NewCatalogService(log, courseRepo, enrollmentRepo, searchRepo, mediaStorage, locks, progressService, rewardService)

	if cfg.ImportDir != "" {
		imp := importer.New(log, catalogService)
		if _, err := imp.ImportDir(ctx, cfg.ImportDir); err != nil {
			log.ErrorErr("course import failed", err)
		}
	}

	u := service.Collection{
		CatalogService:  catalogService,
		EditorService:   editorService,
		ProgressService: progressService,
		QuizService:     quizService,
		RewardService:   rewardService,
	}

	r := http.InitRoutes(log, u)

	srv := server.New(cfg.HTTPServer.Address, cfg.HTTPServer.Timeout, cfg.HTTPServer.IdleTimeout, r)
	srv.Start()
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		log.Info("app signal: " + s.String())
	case err := <-srv.Notify():
		log.ErrorErr("server error", err)
	}
	if err := srv.Shutdown(); err != nil {
		log.ErrorErr("shutdown error", err)
	}
}
