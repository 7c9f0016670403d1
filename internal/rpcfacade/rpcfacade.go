// Package rpcfacade gives the actor-to-actor transport boundary one
// concrete, illustrative shape: a minimal gRPC health/status surface,
// adapted from payout-engine/internal/handler/grpc.go's API-key
// interceptor pattern. The abstract "call actor(X) with payload(Y)"
// contract spec.md leaves unspecified (§1 Non-goals) is not itself
// reimplemented; this only wires the transport's auth and health-check
// plumbing so a concrete RPC surface has somewhere to attach.
package rpcfacade

import (
	"context"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// NewServer builds a grpc.Server with the API-key interceptors installed
// and the standard health service registered, reporting `service` as
// SERVING.
func NewServer(apiSecret, service string) *grpc.Server {
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(AuthInterceptor(apiSecret)),
		grpc.StreamInterceptor(StreamAuthInterceptor(apiSecret)),
	)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(service, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, healthSrv)

	reflection.Register(srv)
	return srv
}

// AuthInterceptor rejects unary calls that don't carry a matching
// x-api-key metadata entry, except the standard health check.
func AuthInterceptor(apiSecret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if info.FullMethod == "/grpc.health.v1.Health/Check" {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		keys := md.Get("x-api-key")
		if len(keys) == 0 || keys[0] != apiSecret {
			log.Warn().Str("method", info.FullMethod).Msg("unauthorized rpc call")
			return nil, status.Error(codes.Unauthenticated, "invalid api key")
		}

		return handler(ctx, req)
	}
}

// StreamAuthInterceptor is the streaming-call counterpart to
// AuthInterceptor.
func StreamAuthInterceptor(apiSecret string) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		md, ok := metadata.FromIncomingContext(ss.Context())
		if !ok {
			return status.Error(codes.Unauthenticated, "missing metadata")
		}

		keys := md.Get("x-api-key")
		if len(keys) == 0 || keys[0] != apiSecret {
			log.Warn().Str("method", info.FullMethod).Msg("unauthorized rpc stream")
			return status.Error(codes.Unauthenticated, "invalid api key")
		}

		return handler(srv, ss)
	}
}
