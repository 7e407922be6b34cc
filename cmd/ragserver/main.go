package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/tohfas/RAG-Access-Control/internal/access"
	"github.com/tohfas/RAG-Access-Control/internal/ai"
	"github.com/tohfas/RAG-Access-Control/internal/config"
	"github.com/tohfas/RAG-Access-Control/internal/corpus"
	"github.com/tohfas/RAG-Access-Control/internal/handler"
	"github.com/tohfas/RAG-Access-Control/internal/index"
	"github.com/tohfas/RAG-Access-Control/internal/loader"
	"github.com/tohfas/RAG-Access-Control/internal/middleware"
	"github.com/tohfas/RAG-Access-Control/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "ragserver",
		Short: "access-controlled document question answering server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the query server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("access_file", cfg.AccessFile),
		zap.String("document_dir", cfg.DocumentDir),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	provider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	generator := ai.NewGenerator(provider, cfg.AI.GenerateModel)
	embedder := ai.NewEmbedder(provider, cfg.AI.EmbedModel)

	registry := access.NewRegistry(cfg.AccessFile)
	assembler := corpus.NewAssembler(cfg.DocumentDir, cfg.DocumentExt, loader.NewPDFLoader())
	builder := service.NewIndexBuilder(index.NewBuilder(embedder))
	synthesizer := service.NewSynthesizer(
		generator,
		cfg.AI.NoAnswerPhrases,
		time.Duration(cfg.AI.Timeout)*time.Second,
	)
	queryService := service.NewQueryService(
		registry,
		assembler,
		builder,
		synthesizer,
		cfg.AI.TopK,
		cfg.Cache.Size,
		time.Duration(cfg.Cache.TTLMinutes)*time.Minute,
	)

	deps := handler.RouterDeps{
		Query:           handler.NewQueryHandler(queryService),
		RateLimitWindow: time.Duration(cfg.RateLimitSeconds) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
