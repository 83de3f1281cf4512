package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/deepak-sorigin/qn-backend-test/internal/config"
	"github.com/deepak-sorigin/qn-backend-test/internal/models"
	"github.com/deepak-sorigin/qn-backend-test/internal/service"
	"github.com/deepak-sorigin/qn-backend-test/internal/service/qp"
)

type Server struct {
	Config *config.Config
	DB     *gorm.DB
	Router *gin.Engine
	Logger *zap.Logger
	Server *http.Server

	// Services
	AdvertiserService *service.AdvertiserService
	CampaignService   *service.CampaignService
	PublishService    *service.PublishService
}

func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	// Set gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := service.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	pollInterval, err := time.ParseDuration(cfg.Qp.PollInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid qp poll interval: %w", err)
	}
	pullTimeout, err := time.ParseDuration(cfg.Qp.PullTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid qp pull timeout: %w", err)
	}

	// Initialize services
	client := qp.NewClient(cfg.Qp.BaseURL, cfg.Qp.APIToken, logger)
	resolver := qp.NewResolver(client, service.NewIdentifierStore(db), logger).
		WithTiming(pollInterval, pullTimeout)

	advertiserService := service.NewAdvertiserService(db, logger)
	campaignService := service.NewCampaignService(db, logger)
	publishService := service.NewPublishService(cfg,
		service.NewCampaignRepository(db),
		service.NewAdvertiserRepository(db),
		client, resolver, logger)

	// Create router
	router := gin.New()

	// Create server
	srv := &Server{
		Config:            cfg,
		DB:                db,
		Router:            router,
		Logger:            logger,
		AdvertiserService: advertiserService,
		CampaignService:   campaignService,
		PublishService:    publishService,
	}

	// Setup middleware and routes
	srv.setupMiddleware()
	srv.setupRoutes()

	return srv, nil
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.Router.Use(gin.Recovery())

	// Logger middleware
	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	// CORS middleware
	s.Router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Unix(),
		})
	})

	// API routes
	api := s.Router.Group("/api/v1")
	{
		advertisers := api.Group("/advertisers")
		{
			advertisers.POST("", s.handleCreateAdvertiser)
			advertisers.GET("", s.handleListAdvertisers)
			advertisers.GET("/:advertiserId", s.handleGetAdvertiser)
			advertisers.PUT("/:advertiserId", s.handleUpdateAdvertiser)
		}

		campaigns := api.Group("/campaigns")
		{
			campaigns.POST("", s.handleCreateCampaign)
			campaigns.GET("", s.handleListCampaigns)
			campaigns.GET("/:campaignId", s.handleGetCampaign)
			campaigns.PUT("/:campaignId", s.handleUpdateCampaign)
			campaigns.PUT("/:campaignId/publish", s.handlePublishCampaign)
		}
	}
}

// respondError maps domain errors onto HTTP status codes.
func (s *Server) respondError(c *gin.Context, err error) {
	var apiErr *qp.APIError
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.Is(err, service.ErrPublishInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "publish already in progress"})
	case errors.Is(err, qp.ErrResolutionTimeout):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": apiErr.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (s *Server) handleCreateAdvertiser(c *gin.Context) {
	var advertiser models.Advertiser
	if err := c.ShouldBindJSON(&advertiser); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := s.AdvertiserService.Create(c.Request.Context(), &advertiser)
	if err != nil {
		s.Logger.Error("Failed to create advertiser", zap.Error(err))
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleListAdvertisers(c *gin.Context) {
	advertisers, err := s.AdvertiserService.List(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to list advertisers", zap.Error(err))
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, advertisers)
}

func (s *Server) handleGetAdvertiser(c *gin.Context) {
	advertiser, err := s.AdvertiserService.Get(c.Request.Context(), c.Param("advertiserId"))
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			s.Logger.Error("Failed to fetch advertiser", zap.Error(err))
		}
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, advertiser)
}

func (s *Server) handleUpdateAdvertiser(c *gin.Context) {
	var advertiser models.Advertiser
	if err := c.ShouldBindJSON(&advertiser); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := s.AdvertiserService.Update(c.Request.Context(), c.Param("advertiserId"), &advertiser)
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			s.Logger.Error("Failed to update advertiser", zap.Error(err))
		}
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleCreateCampaign(c *gin.Context) {
	var campaign models.Campaign
	if err := c.ShouldBindJSON(&campaign); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := s.CampaignService.Create(c.Request.Context(), &campaign)
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			s.Logger.Error("Failed to create campaign", zap.Error(err))
		}
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleListCampaigns(c *gin.Context) {
	campaigns, err := s.CampaignService.List(c.Request.Context())
	if err != nil {
		s.Logger.Error("Failed to list campaigns", zap.Error(err))
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaigns)
}

func (s *Server) handleGetCampaign(c *gin.Context) {
	campaign, err := s.CampaignService.Get(c.Request.Context(), c.Param("campaignId"))
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			s.Logger.Error("Failed to fetch campaign", zap.Error(err))
		}
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (s *Server) handleUpdateCampaign(c *gin.Context) {
	var campaign models.Campaign
	if err := c.ShouldBindJSON(&campaign); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := s.CampaignService.Update(c.Request.Context(), c.Param("campaignId"), &campaign)
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			s.Logger.Error("Failed to update campaign", zap.Error(err))
		}
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handlePublishCampaign(c *gin.Context) {
	campaign, err := s.PublishService.Publish(c.Request.Context(), c.Param("campaignId"))
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) && !errors.Is(err, service.ErrPublishInProgress) {
			s.Logger.Error("Failed to publish campaign", zap.Error(err))
		}
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.Router,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))

	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		return s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	}

	return s.Server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.Server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return s.Server.Shutdown(shutdownCtx)
}
