package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/opensurvey/monitor/internal/apiserver/database"
	"github.com/opensurvey/monitor/internal/apiserver/handler"
	"github.com/opensurvey/monitor/internal/apiserver/middleware"
	"github.com/opensurvey/monitor/internal/auth/jwt"
	"github.com/opensurvey/monitor/internal/common/cnst"
	"github.com/opensurvey/monitor/internal/common/config"
	"github.com/opensurvey/monitor/internal/i18n"
	"github.com/opensurvey/monitor/internal/notifier"
	"github.com/opensurvey/monitor/pkg/logger"
	"github.com/opensurvey/monitor/pkg/metrics"
	"github.com/opensurvey/monitor/pkg/trace"
	"github.com/opensurvey/monitor/pkg/version"
)

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of apiserver",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("apiserver version %s\n", version.Get())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "apiserver",
		Short: "Survey monitoring API server",
		Long:  `The apiserver exposes the survey monitoring backend: hierarchy management, zones, assignments, the survey dictionary and the record ingestion endpoint`,
		Run: func(cmd *cobra.Command, args []string) {
			run()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", cnst.ApiServerYaml, "path to the configuration file")
	rootCmd.AddCommand(versionCmd)
}

func run() {
	// Load configuration
	cfg, cfgPath, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	lg, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer lg.Sync()

	lg.Info("starting apiserver",
		zap.String("version", version.Get()),
		zap.String("config", cfgPath))

	// Initialize i18n translator
	if err := i18n.InitTranslator(cfg.I18n.Path); err != nil {
		lg.Warn("failed to load translations", zap.String("path", cfg.I18n.Path), zap.Error(err))
	}
	if cfg.I18n.Lang != "" {
		i18n.SetDefaultLanguage(cfg.I18n.Lang)
	}

	// Initialize tracing
	if cfg.Tracing.Enabled {
		shutdown, err := trace.InitTracing(context.Background(), &cfg.Tracing, lg)
		if err != nil {
			lg.Fatal("failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			_ = shutdown(context.Background())
		}()
	}

	// Initialize database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		lg.Fatal("failed to initialize database",
			zap.String("type", cfg.Database.Type),
			zap.Error(err))
	}
	defer db.Close()

	// Seed the director account so a fresh install is usable immediately
	if cfg.SuperAdmin.Username != "" && cfg.SuperAdmin.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.SuperAdmin.Password), bcrypt.DefaultCost)
		if err != nil {
			lg.Fatal("failed to hash director password", zap.Error(err))
		}
		created, err := database.EnsureDirector(context.Background(), db, cfg.SuperAdmin.Username, string(hash))
		if err != nil {
			lg.Fatal("failed to seed director account", zap.Error(err))
		}
		if created {
			lg.Info("director account created", zap.String("username", cfg.SuperAdmin.Username))
		}
	}

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		SecretKey: cfg.JWT.SecretKey,
		Duration:  cfg.JWT.Duration,
	})
	if err != nil {
		lg.Fatal("failed to initialize JWT service", zap.Error(err))
	}

	// Initialize update notifier
	var ntf notifier.Notifier = notifier.Noop{}
	if cfg.Notifier.Enabled {
		redisNtf, err := notifier.NewRedisNotifier(lg, cfg.Notifier.Redis)
		if err != nil {
			lg.Fatal("failed to initialize notifier", zap.Error(err))
		}
		defer redisNtf.Close()
		ntf = redisNtf
	}

	// Initialize metrics
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics)
	}

	h := handler.NewHandler(db, jwtService, cfg, lg, ntf, m)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware("apiserver"))
	}
	if m != nil {
		r.Use(m.Middleware())
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Get()})
	})

	api := r.Group("/api")

	// Public endpoints: login for humans, sync for the ETL collaborator
	api.POST("/auth/login", h.Login)
	api.POST("/surveys/sync", h.SyncSurveys)

	authed := api.Group("", middleware.JWTAuthMiddleware(jwtService))
	{
		authed.GET("/auth/me", h.Me)

		authed.POST("/users", h.CreateUser)
		authed.GET("/users", h.ListUsers)
		authed.GET("/users/:id", h.GetUser)
		authed.PUT("/users/:id", h.UpdateUser)
		authed.DELETE("/users/:id", h.DeleteUser)

		authed.POST("/zones", h.CreateZone)
		authed.GET("/zones", h.ListZones)
		authed.GET("/zones/:id", h.GetZone)
		authed.DELETE("/zones/:id", h.DeleteZone)

		authed.POST("/assignments", h.CreateAssignment)
		authed.GET("/assignments", h.ListAssignments)
		authed.GET("/assignments/:id", h.GetAssignment)
		authed.PUT("/assignments/:id", h.UpdateAssignment)
		authed.GET("/assignments/:id/stats", h.AssignmentStats)

		authed.POST("/variables", h.CreateVariable)
		authed.GET("/variables", h.ListVariables)
		authed.GET("/variables/:id", h.GetVariable)
		authed.DELETE("/variables/:id", h.DeleteVariable)

		authed.GET("/settings", h.GetSettings)
		authed.PUT("/settings", h.UpdateSettings)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	lg.Info("apiserver listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		lg.Fatal("server stopped", zap.Error(err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
