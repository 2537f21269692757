package grpc

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/irisuniflora/VF/internal/config"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/prometheus"
)

const (
	defaultMaxMsgSize      = 64 << 20
	defaultGracefulTimeout = 10 * time.Second
)

var defaultKeepaliveParams = keepalive.ServerParameters{
	MaxConnectionIdle: 15 * time.Minute,
	Time:              5 * time.Minute,
	Timeout:           time.Second,
}

// Option configures the Server.
type Option func(*serverOptions)

type serverOptions struct {
	logger          logging.Logger
	metrics         *prometheus.AppMetrics
	listener        net.Listener
	maxMsgSize      int
	gracefulTimeout time.Duration
}

func WithLogger(l logging.Logger) Option { return func(o *serverOptions) { o.logger = l } }

func WithMetrics(m *prometheus.AppMetrics) Option { return func(o *serverOptions) { o.metrics = m } }

// WithListener serves on ln instead of binding the configured address.
func WithListener(ln net.Listener) Option { return func(o *serverOptions) { o.listener = ln } }

// WithMaxMsgSize bounds request and response messages; structure text is
// sent inline so the default is generous.
func WithMaxMsgSize(n int) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxMsgSize = n
		}
	}
}

func WithGracefulTimeout(d time.Duration) Option {
	return func(o *serverOptions) {
		if d > 0 {
			o.gracefulTimeout = d
		}
	}
}

// Server owns a grpc.Server, its listener and the health service.
type Server struct {
	grpcServer   *grpc.Server
	listener     net.Listener
	opts         *serverOptions
	healthServer *health.Server

	mu      sync.Mutex
	started bool
}

// NewServer binds the listener and registers health, and reflection when
// cfg.Debug is set.
func NewServer(cfg config.GRPCConfig, opts ...Option) (*Server, error) {
	so := &serverOptions{
		maxMsgSize:      defaultMaxMsgSize,
		gracefulTimeout: defaultGracefulTimeout,
	}
	for _, o := range opts {
		o(so)
	}
	if so.logger == nil {
		so.logger = logging.NewNopLogger()
	}

	lis := so.listener
	if lis == nil {
		addr := net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port))
		var err error
		if lis, err = net.Listen("tcp", addr); err != nil {
			return nil, fmt.Errorf("grpc: listen on %s: %w", addr, err)
		}
	}

	gs := grpc.NewServer(
		grpc.MaxRecvMsgSize(so.maxMsgSize),
		grpc.MaxSendMsgSize(so.maxMsgSize),
		grpc.KeepaliveParams(defaultKeepaliveParams),
		grpc.ChainUnaryInterceptor(
			recoveryUnaryInterceptor(so.logger),
			loggingUnaryInterceptor(so.logger),
			metricsUnaryInterceptor(so.metrics),
		),
		grpc.ChainStreamInterceptor(
			recoveryStreamInterceptor(so.logger),
			loggingStreamInterceptor(so.logger),
			metricsStreamInterceptor(so.metrics),
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	if cfg.Debug {
		reflection.Register(gs)
		so.logger.Info("grpc reflection enabled")
	}

	return &Server{grpcServer: gs, listener: lis, opts: so, healthServer: hs}, nil
}

// RegisterService adds a service and marks it serving.  Call before Start.
func (s *Server) RegisterService(desc *grpc.ServiceDesc, impl interface{}) {
	s.grpcServer.RegisterService(desc, impl)
	s.healthServer.SetServingStatus(desc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	s.opts.logger.Info("grpc service registered", logging.String("service", desc.ServiceName))
}

// Start serves until Stop.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("grpc: server already started")
	}
	s.started = true
	s.mu.Unlock()

	s.opts.logger.Info("gRPC server listening", logging.String("addr", s.listener.Addr().String()))
	if err := s.grpcServer.Serve(s.listener); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

// Stop marks every service NOT_SERVING and drains; after the graceful
// timeout remaining streams are cut.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		_ = s.listener.Close()
		return nil
	}

	s.healthServer.Shutdown()

	ctx, cancel := context.WithTimeout(ctx, s.opts.gracefulTimeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		s.opts.logger.Info("gRPC server stopped")
	case <-ctx.Done():
		s.opts.logger.Warn("gRPC graceful stop timed out, forcing stop")
		s.grpcServer.Stop()
	}
	return nil
}

// Addr is the bound address; useful with port 0.
func (s *Server) Addr() string { return s.listener.Addr().String() }

// ─────────────────────────────────────────────────────────────────────────────
// Interceptors
// ─────────────────────────────────────────────────────────────────────────────

func recoveryUnaryInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logPanic(logger, info.FullMethod, r)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

func recoveryStreamInterceptor(logger logging.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logPanic(logger, info.FullMethod, r)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(srv, ss)
	}
}

func logPanic(logger logging.Logger, method string, r interface{}) {
	logger.Error("grpc panic recovered",
		logging.String("method", method),
		logging.String("panic", fmt.Sprint(r)),
		logging.String("stack", string(debug.Stack())))
}

func isHealthCheck(method string) bool {
	return strings.HasPrefix(method, "/grpc.health.v1.Health/")
}

func logRequest(logger logging.Logger, msg, method string, d time.Duration, err error) {
	code := status.Code(err)
	fields := []logging.Field{
		logging.String("method", method),
		logging.Duration("duration", d),
		logging.String("code", code.String()),
	}
	switch code {
	case codes.OK:
		logger.Info(msg, fields...)
	case codes.Internal, codes.Unknown, codes.Unavailable:
		logger.Error(msg, append(fields, logging.Err(err))...)
	default:
		logger.Warn(msg, append(fields, logging.Err(err))...)
	}
}

func loggingUnaryInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if isHealthCheck(info.FullMethod) {
			return handler(ctx, req)
		}
		start := time.Now()
		resp, err := handler(ctx, req)
		logRequest(logger, "grpc request", info.FullMethod, time.Since(start), err)
		return resp, err
	}
}

func loggingStreamInterceptor(logger logging.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if isHealthCheck(info.FullMethod) {
			return handler(srv, ss)
		}
		start := time.Now()
		err := handler(srv, ss)
		logRequest(logger, "grpc stream", info.FullMethod, time.Since(start), err)
		return err
	}
}

func metricsUnaryInterceptor(m *prometheus.AppMetrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if m == nil {
			return handler(ctx, req)
		}
		start := time.Now()
		resp, err := handler(ctx, req)
		prometheus.RecordGRPCRequest(m, info.FullMethod, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}

func metricsStreamInterceptor(m *prometheus.AppMetrics) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if m == nil {
			return handler(srv, ss)
		}
		start := time.Now()
		err := handler(srv, ss)
		prometheus.RecordGRPCRequest(m, info.FullMethod, status.Code(err).String(), time.Since(start))
		return err
	}
}
