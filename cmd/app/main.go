package main

import (
	"context"
	"fmt"
	"log"

	"github.com/bohemiyan/permtree"
	"github.com/bohemiyan/permtree/internal/config"
	"github.com/bohemiyan/permtree/internal/db"
	"github.com/bohemiyan/permtree/internal/routes"
	"github.com/bohemiyan/permtree/zapLogger"
	"github.com/gofiber/fiber/v2"
)

func main() {
	logFile := zapLogger.Init()

	cfg, err := config.LoadConfig()
	if err != nil {
		zapLogger.Log.Fatalf("Failed to load config: %v", err)
	}

	pgDB, err := db.NewPostgresDB(cfg)
	if err != nil {
		zapLogger.Log.Fatalf("Failed to initialize PostgreSQL: %v", err)
	}
	zapLogger.Log.Info("Successfully connected to PostgreSQL database")
	defer pgDB.Close()

	redisDB, err := db.NewRedisClient(cfg)
	if err != nil {
		zapLogger.Log.Fatalf("Failed to initialize Redis: %v", err)
	}
	zapLogger.Log.Info("Successfully connected to Redis")
	defer redisDB.Close()

	inheritance, err := permtree.LoadInheritanceMap(cfg.InheritanceMap)
	if err != nil {
		zapLogger.Log.Fatalf("Failed to load inheritance map: %v", err)
	}
	zapLogger.Log.Infof("Loaded inheritance map with %d roles", len(inheritance))

	gateway, err := permtree.NewGormGateway(permtree.GatewayConfig{
		DB:          pgDB.GormDB,
		RedisClient: redisDB,
		CacheTTL:    cfg.CacheTTL,
		CachePrefix: "permtree:",
		AutoMigrate: true,
		EnableAudit: true,
	})
	if err != nil {
		zapLogger.Log.Fatalf("Failed to initialize gateway: %v", err)
	}

	manager, err := permtree.NewManager(context.Background(), gateway, inheritance)
	if err != nil {
		zapLogger.Log.Fatalf("Failed to initialize permission manager: %v", err)
	}

	app := fiber.New()
	app.Use(zapLogger.FiberLoggingMiddleware(logFile))
	routes.Setup(app, manager, gateway)

	addr := fmt.Sprintf(":%d", cfg.AppPort)
	zapLogger.Log.Infof("Server started on port %d", cfg.AppPort)
	log.Fatal(app.Listen(addr))
}
