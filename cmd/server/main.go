package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"google.golang.org/grpc/health/grpc_health_v1"

	grpcAdapter "github.com/jollyrancherman/frauc-app-sub001/internal/adapter/grpc"
	natsAdapter "github.com/jollyrancherman/frauc-app-sub001/internal/adapter/messaging/nats"
	"github.com/jollyrancherman/frauc-app-sub001/internal/adapter/repository/cache"
	mongoRepo "github.com/jollyrancherman/frauc-app-sub001/internal/adapter/repository/mongodb"
	"github.com/jollyrancherman/frauc-app-sub001/internal/adapter/storage/s3"
	"github.com/jollyrancherman/frauc-app-sub001/internal/config"
	"github.com/jollyrancherman/frauc-app-sub001/internal/listing/usecase"
	"github.com/jollyrancherman/frauc-app-sub001/internal/platform/logger"
	"github.com/jollyrancherman/frauc-app-sub001/internal/platform/metrics"
	"github.com/jollyrancherman/frauc-app-sub001/internal/platform/tracer"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	appLogger := logger.NewLogger()
	appLogger.Info("Application starting...")

	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracer.InitTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		appLogger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				appLogger.Error("Failed to shut down tracer provider", zap.Error(err))
			}
		}()
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error("Failed to disconnect MongoDB client", zap.Error(err))
		}
	}()
	if err := mongoClient.Ping(ctx, nil); err != nil {
		appLogger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	db := mongoClient.Database(cfg.MongoDatabase)

	listingRepo, err := mongoRepo.NewListingRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize listing repository", zap.Error(err))
	}

	listingCache, err := cache.NewListingCache(cfg.RedisAddr)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer listingCache.Close()

	natsPublisher, err := natsAdapter.NewPublisher(cfg.NATSURL, appLogger, cfg.ServiceName)
	if err != nil {
		appLogger.Fatal("Failed to initialize NATS publisher", zap.Error(err))
	}
	defer natsPublisher.Close()

	photoStorage, err := s3.NewPhotoStorage(
		cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize photo storage", zap.Error(err))
	}

	metricsManager := metrics.NewManager("listing_service")
	go func() {
		if err := metrics.StartServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	listingUC := usecase.NewListingUsecase(listingRepo, listingCache, natsPublisher, metricsManager, appLogger)
	_ = usecase.NewPhotoUsecase(listingUC, photoStorage, appLogger)

	// Background expiry sweep: auctions past their deadline transition to
	// Expired without waiting for a read.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				expired, err := listingUC.ExpireDueListings(ctx, 100)
				if err != nil {
					appLogger.Warn("Expiry sweep failed", zap.Error(err))
					continue
				}
				if expired > 0 {
					appLogger.Info("Expiry sweep completed", zap.Int("expired", expired))
				}
			}
		}
	}()

	grpcServer, healthServer := grpcAdapter.NewServer(appLogger, cfg.JWTSecret)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		appLogger.Fatal("Failed to listen on gRPC port", zap.String("port", cfg.GRPCPort), zap.Error(err))
	}

	go func() {
		appLogger.Info("gRPC server starting", zap.String("port", cfg.GRPCPort))
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Error("gRPC server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutdown signal received, stopping...")

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpcServer.GracefulStop()
	appLogger.Info("Shutdown complete")

	_ = os.Stdout.Sync()
}
