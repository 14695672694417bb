package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/arnavshah/capacity-planner-api/pkg/config"
	"github.com/arnavshah/capacity-planner-api/pkg/database"
	"github.com/arnavshah/capacity-planner-api/pkg/handlers"
	"github.com/arnavshah/capacity-planner-api/pkg/logger"
	"github.com/arnavshah/capacity-planner-api/pkg/server"
)

var r *gin.Engine

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	zapLogger, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	db, err := database.Open(&cfg.Database, zapLogger)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	h := handlers.NewHandler(database.NewStore(db), zapLogger)
	r = server.NewEngine(&cfg.Server, h, zapLogger)
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
