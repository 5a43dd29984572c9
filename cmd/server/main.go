package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xdevcollins/boundless-backend/internal/config"
	"github.com/0xdevcollins/boundless-backend/internal/database"
	"github.com/0xdevcollins/boundless-backend/internal/ethereum"
	"github.com/0xdevcollins/boundless-backend/internal/logger"
	"github.com/0xdevcollins/boundless-backend/internal/monitor"
	"github.com/0xdevcollins/boundless-backend/internal/notify"
	"github.com/0xdevcollins/boundless-backend/internal/router"
	"github.com/0xdevcollins/boundless-backend/internal/scheduler"
	"github.com/0xdevcollins/boundless-backend/internal/settlement"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	initLogger(cfg.Log)

	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	settlementClient := settlement.NewClient(cfg.Settlement)

	emitter, err := notify.NewEmitter(db, cfg.Notify.Workers)
	if err != nil {
		log.Fatalf("Failed to initialize event emitter: %v", err)
	}
	defer emitter.Close()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.Setup(db, settlementClient, emitter, cfg)

	sched := scheduler.Start(db, emitter, cfg)
	defer sched.Stop()

	if cfg.Chain.Enabled {
		chainClient, err := ethereum.Init(cfg.Chain)
		if err != nil {
			log.Fatalf("Failed to initialize chain client: %v", err)
		}
		mon := monitor.New(db, chainClient)
		mon.Start()
		defer mon.Stop()
	}

	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := r.Run(":" + cfg.Server.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")
}

func initLogger(cfg config.LogConfig) {
	level := logger.ParseLogLevel(cfg.Level)

	if cfg.Output == "file" {
		l, err := logger.NewWithRotation(level, logger.RotationConfig{Filename: cfg.File})
		if err != nil {
			log.Fatalf("Failed to initialize file logger: %v", err)
		}
		logger.SetDefaultLogger(l)
		return
	}

	l, err := logger.New(level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger.SetDefaultLogger(l)
}
