// Package grpc exposes the record backend over the paykeeper.RecordService
// gRPC contract.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/paykeeper/internal/logging"
	pb "github.com/dmitrijs2005/paykeeper/internal/proto"
	"github.com/dmitrijs2005/paykeeper/internal/records"
	"github.com/dmitrijs2005/paykeeper/internal/server/models"
	"github.com/dmitrijs2005/paykeeper/internal/server/services"
	"google.golang.org/grpc"
)

// Users is the account side of the service, see services.UserService.
type Users interface {
	Register(ctx context.Context, username string, salt, verifier []byte) (*models.User, error)
	GetSalt(ctx context.Context, userName string) ([]byte, error)
	Login(ctx context.Context, userName string, verifierCandidate []byte) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

// Records is the per-user record store, see services.RecordService.
type Records interface {
	List(ctx context.Context, userID, entity string) ([]records.Record, error)
	Get(ctx context.Context, userID, entity, id string) (records.Record, error)
	Create(ctx context.Context, userID, entity string, rec records.Record) (records.Record, error)
	Update(ctx context.Context, userID, entity, id string, rec records.Record, baseVersion int64) (records.Record, error)
	Delete(ctx context.Context, userID, entity, id string, baseVersion int64) error
	Query(ctx context.Context, userID, entity string, q records.Query) ([]records.Record, error)
}

// Backups issues upload URLs, see services.BackupService.
type Backups interface {
	GetPresignedPutURL(ctx context.Context, userID string) (string, string, error)
}

type GRPCServer struct {
	pb.UnimplementedRecordServiceServer
	address   string
	users     Users
	records   Records
	backups   Backups
	logger    logging.Logger
	jwtSecret []byte
	metrics   *Metrics
}

type Option func(*GRPCServer)

// WithMetrics records per-method request counts and latencies.
func WithMetrics(m *Metrics) Option {
	return func(s *GRPCServer) { s.metrics = m }
}

func NewGRPCServer(a string, l logging.Logger, us Users, rs Records, bs Backups, secretKey string, opts ...Option) *GRPCServer {
	s := &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		records:   rs,
		backups:   bs,
		jwtSecret: []byte(secretKey),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewServer builds a grpc.Server with the service and its interceptors registered.
func (s *GRPCServer) NewServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.metrics.interceptor, s.accessTokenInterceptor))
	pb.RegisterRecordServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
