package main

import (
	"context"
	"log"
	"time"

	"servihub-chat/config"
	"servihub-chat/internal/redis"
	"servihub-chat/internal/repository"
	"servihub-chat/internal/server"
	"servihub-chat/internal/services"
	"servihub-chat/pkg/database"
	"servihub-chat/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logMode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		logMode = logger.ProductionMode
	}
	l := logger.New(logMode)
	defer l.Logger.Sync()
	logger.SetGlobalLogger(l)
	zap.ReplaceGlobals(l.Logger)

	pg, err := database.ConnectPostgres(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pg.Close()

	mdb, err := database.ConnectMongo(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to mongo: %v", err)
	}
	defer mdb.Client().Disconnect(context.Background())

	// Redis is advisory here. The gateway keeps working without the
	// connection limiter and the presence announcements.
	var (
		announcer server.PresenceAnnouncer
		gate      server.ConnectionGate
	)
	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		l.Warnf("Redis unavailable, connection limiting and presence announcements disabled: %s", err)
	} else {
		defer redisClient.Close()
		announcer = redis.NewPresenceAnnouncer(redisClient, l.Logger)
		gate = redis.NewConnectionLimiter(redisClient, cfg.WSConnLimit, time.Minute, l.Logger)
	}

	customers := repository.NewCustomerStore(pg)
	providers := repository.NewProviderStore(pg)
	requests := repository.NewServiceRequestStore(pg)
	bundles := repository.NewBundleStore(pg)

	convRepo := repository.NewConversationRepository(mdb, l.Logger)
	quickRepo := repository.NewQuickChatRepository(mdb, l.Logger)

	indexCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := convRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to ensure conversation indexes: %v", err)
	}

	identity := services.NewIdentityService(customers, providers, []byte(cfg.JWTSecret))
	conversations := services.NewConversationService(requests, bundles, convRepo, l.Logger)
	quickchats := services.NewQuickChatService(quickRepo, conversations, convRepo, l.Logger)

	wsLogger := server.NewWebSocketLogger()
	hub := server.NewHub(wsLogger)
	presence := server.NewPresenceRegistry()
	dispatcher := server.NewDispatcher(hub, presence)
	gateway := server.NewGateway(identity, conversations, quickchats, hub, presence, dispatcher, announcer)
	wsHandler := server.NewWebSocketHandler(gateway, gate)

	srv := server.New(cfg, l)
	srv.SetupRoutes(wsHandler, pg, mdb)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}

	hub.Shutdown()
}
