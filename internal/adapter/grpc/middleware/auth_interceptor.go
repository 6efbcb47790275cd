package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/jollyrancherman/frauc-app-sub001/internal/platform/logger"
)

// UserIDKeyType is a private context-key type to avoid collisions.
type UserIDKeyType string

// UserIDKey carries the authenticated user's ID in the request context.
const UserIDKey UserIDKeyType = "authenticatedUserID"

// Claims is the JWT claims shape issued by the user service.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// AuthInterceptor validates the bearer token from the API gateway and puts
// the authenticated user ID on the context. Methods in publicMethods skip
// authentication.
func AuthInterceptor(jwtSecret string, log *logger.Logger, publicMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			log.Warn("AuthInterceptor: missing metadata", zap.String("method", info.FullMethod))
			return nil, status.Errorf(codes.Unauthenticated, "metadata is not provided")
		}

		authHeaders := md.Get("authorization")
		if len(authHeaders) == 0 {
			return nil, status.Errorf(codes.Unauthenticated, "authorization token is not provided")
		}

		parts := strings.Fields(authHeaders[0])
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return nil, status.Errorf(codes.Unauthenticated, "authorization token format is invalid, expected 'Bearer <token>'")
		}
		tokenString := parts[1]
		if tokenString == "" {
			return nil, status.Errorf(codes.Unauthenticated, "authorization token is empty")
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, status.Errorf(codes.Unauthenticated, "unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			log.Warn("AuthInterceptor: token validation failed", zap.String("method", info.FullMethod), zap.Error(err))
			if errors.Is(err, jwt.ErrTokenExpired) {
				return nil, status.Errorf(codes.Unauthenticated, "token has expired")
			}
			return nil, status.Errorf(codes.Unauthenticated, "token is invalid: %v", err)
		}
		if !token.Valid {
			return nil, status.Errorf(codes.Unauthenticated, "token is not valid")
		}
		if claims.UserID == "" {
			return nil, status.Errorf(codes.Unauthenticated, "user id not found in token claims")
		}

		newCtx := context.WithValue(ctx, UserIDKey, claims.UserID)
		log.Debug("AuthInterceptor: user authenticated",
			zap.String("method", info.FullMethod),
			zap.String("user_id", claims.UserID))
		return handler(newCtx, req)
	}
}
