package grpc

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/jollyrancherman/frauc-app-sub001/internal/adapter/grpc/middleware"
	"github.com/jollyrancherman/frauc-app-sub001/internal/platform/logger"
)

// NewServer builds the gRPC server with the standard interceptor chain
// (tracing, logging, JWT auth), health service and reflection. The listing
// RPC surface itself is registered by the API gateway deployment; this
// server carries the shared middleware and health endpoint.
func NewServer(appLogger *logger.Logger, jwtSecret string) (*grpc.Server, *health.Server) {
	publicMethods := map[string]bool{
		grpc_health_v1.Health_Check_FullMethodName: true,
		grpc_health_v1.Health_Watch_FullMethodName: true,
	}

	unaryInterceptors := []grpc.UnaryServerInterceptor{
		middleware.LoggingInterceptor(appLogger),
		middleware.AuthInterceptor(jwtSecret, appLogger, publicMethods),
	}

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(unaryInterceptors...),
	)

	appLogger.Info("gRPC server configured with interceptors",
		zap.Bool("tracing_enabled", true),
		zap.Bool("logging_enabled", true),
		zap.Bool("auth_enabled", true),
	)

	reflection.Register(server)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)

	return server, healthServer
}
