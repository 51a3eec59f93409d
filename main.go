package main

import (
	"flag"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pos_api/api"
	"pos_api/config"
	"pos_api/internal/database"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Errorf("error loading config: %v", err))
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Errorf("error creating logger: %v", err))
	}
	defer logger.Sync()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer db.Close()

	if err := database.InitSchema(db); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	api.InitRoutes(r, db, logger, cfg.TransactionLimit)

	logger.Info("starting server", zap.String("addr", cfg.ServerAddr))
	if err := r.Run(cfg.ServerAddr); err != nil {
		panic(fmt.Errorf("error trying to start server: %v", err))
	}
}
