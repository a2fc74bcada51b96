package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/tair/supply-ledger/pkg/auth"
	"github.com/tair/supply-ledger/pkg/logger"
)

var grpcTracer = otel.Tracer("grpc-ledger-server")

// publicMethods need no token
var publicMethods = map[string]bool{
	MethodClassifyStock: true,
}

// Interceptors holds the unary interceptor chain of the ledger server
type Interceptors struct {
	tokens *auth.TokenManager

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestSummary  *prometheus.SummaryVec
	errorsTotal     *prometheus.CounterVec
}

// NewInterceptors creates the interceptors and registers their metrics on reg
func NewInterceptors(tokens *auth.TokenManager, reg prometheus.Registerer) *Interceptors {
	i := &Interceptors{
		tokens: tokens,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_service_grpc_requests_total",
				Help: "Total number of gRPC requests",
			},
			[]string{"method", "status_code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inventory_service_grpc_request_duration_seconds",
				Help:    "Duration of gRPC requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		requestSummary: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: "inventory_service_grpc_request_duration_summary",
				Help: "Summary of gRPC request durations with percentiles",
				Objectives: map[float64]float64{
					0.5:  0.05,
					0.9:  0.01,
					0.95: 0.01,
					0.99: 0.001,
				},
				MaxAge: 10 * time.Minute,
			},
			[]string{"method"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_service_grpc_errors_total",
				Help: "Total number of gRPC errors",
			},
			[]string{"method", "error_code"},
		),
	}

	if reg != nil {
		reg.MustRegister(i.requestsTotal, i.requestDuration, i.requestSummary, i.errorsTotal)
	}
	return i
}

// Chain returns the interceptors in the order the server applies them
func (i *Interceptors) Chain() grpc.ServerOption {
	return grpc.ChainUnaryInterceptor(
		i.Tracing,
		i.Metrics,
		i.Logging,
		i.Auth,
	)
}

// Tracing adds distributed tracing to gRPC calls
func (i *Interceptors) Tracing(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	ctx, span := grpcTracer.Start(ctx, info.FullMethod,
		oteltrace.WithSpanKind(oteltrace.SpanKindServer),
		oteltrace.WithAttributes(
			attribute.String("rpc.system", "grpc"),
			attribute.String("rpc.service", ServiceName),
			attribute.String("rpc.method", info.FullMethod),
		),
	)
	defer span.End()

	resp, err := handler(ctx, req)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if st, ok := status.FromError(err); ok {
			span.SetAttributes(attribute.String("rpc.grpc.status_code", st.Code().String()))
		}
	} else {
		span.SetStatus(codes.Ok, "success")
	}

	return resp, err
}

// Metrics collects Prometheus metrics for gRPC calls
func (i *Interceptors) Metrics(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()

	resp, err := handler(ctx, req)

	duration := time.Since(start).Seconds()

	statusCode := grpccodes.OK.String()
	if err != nil {
		statusCode = status.Code(err).String()
		i.errorsTotal.WithLabelValues(info.FullMethod, statusCode).Inc()
	}

	i.requestsTotal.WithLabelValues(info.FullMethod, statusCode).Inc()
	i.requestDuration.WithLabelValues(info.FullMethod).Observe(duration)
	i.requestSummary.WithLabelValues(info.FullMethod).Observe(duration)

	return resp, err
}

// Logging logs gRPC requests with structured logging. An x-request-id
// metadata value is carried into the handler's log lines.
func (i *Interceptors) Logging(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()

	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get("x-request-id"); len(ids) > 0 && ids[0] != "" {
			ctx = logger.WithRequestID(ctx, ids[0])
		}
	}

	resp, err := handler(ctx, req)

	duration := time.Since(start)
	if err != nil {
		event := logger.Warn(ctx)
		if code := status.Code(err); code == grpccodes.Internal || code == grpccodes.Unavailable || code == grpccodes.Unknown {
			event = logger.Error(ctx)
		}
		event.
			Str("method", info.FullMethod).
			Str("protocol", "grpc").
			Dur("duration", duration).
			Int64("duration_ms", duration.Milliseconds()).
			Str("grpc_status", status.Code(err).String()).
			Err(err).
			Msg("gRPC request failed")
	} else {
		logger.Info(ctx).
			Str("method", info.FullMethod).
			Str("protocol", "grpc").
			Dur("duration", duration).
			Int64("duration_ms", duration.Milliseconds()).
			Msg("gRPC request completed")
	}

	return resp, err
}

// Auth validates the bearer token in the "authorization" metadata and puts
// the caller's claims into the context
func (i *Interceptors) Auth(
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
		return nil, status.Errorf(grpccodes.Unauthenticated, "metadata not provided")
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Errorf(grpccodes.Unauthenticated, "authorization token not provided")
	}

	claims, err := i.tokens.ValidateToken(strings.TrimPrefix(values[0], "Bearer "))
	if err != nil {
		return nil, status.Errorf(grpccodes.Unauthenticated, "invalid token: %v", err)
	}

	return handler(auth.WithClaims(ctx, claims), req)
}
