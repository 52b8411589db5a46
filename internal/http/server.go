package http

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Projectworkpls/Observer/internal/config"
	"github.com/Projectworkpls/Observer/internal/pipeline"
	"github.com/Projectworkpls/Observer/internal/render"
	"github.com/Projectworkpls/Observer/internal/services"
	"github.com/Projectworkpls/Observer/internal/storage"
)

type Server struct {
	engine *gin.Engine
	cfg    config.Config
}

func NewServer(cfg config.Config) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	fm, err := storage.NewFileManager(cfg.DataDir, cfg.MaxUploadBytes)
	if err != nil {
		return nil, fmt.Errorf("init file manager: %w", err)
	}

	store, err := storage.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	var recorder pipeline.Recorder = store
	if cfg.DatabaseURL != "" {
		repo, err := storage.OpenObservationRepo(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init observation repo: %w", err)
		}
		recorder = repo
		log.Info().Msg("recording observations to postgres")
	}

	pipe := pipeline.New(
		services.NewOCRService(cfg),
		services.NewTranscribeService(cfg),
		services.NewStructureService(cfg),
		services.NewNarrativeService(cfg),
		render.Docx,
		recorder,
	)
	shareSvc := services.NewShareService(cfg)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger())
	engine.Use(MaxBodySize(cfg.MaxUploadBytes))
	engine.Use(CORS())

	api := NewAPI(cfg, fm, store, pipe, shareSvc)
	registerRoutes(engine, api)

	return &Server{engine: engine, cfg: cfg}, nil
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	return s.engine.Run(addr)
}
