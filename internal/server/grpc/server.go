// Package grpc exposes SecretService over gRPC as runavault.VaultService.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/runavault/internal/logging"
	"github.com/dmitrijs2005/runavault/internal/server/models"
	"github.com/dmitrijs2005/runavault/internal/server/services"
	"github.com/dmitrijs2005/runavault/internal/vaultapi"
)

// SecretService is the set of operations the transport serves.
type SecretService interface {
	CreateSecret(ctx context.Context, id models.Identity, req services.CreateRequest) (*models.Secret, error)
	GetSecret(ctx context.Context, id models.Identity, site, subdirectory string) (*models.ResolvedSecret, error)
	ListSecrets(ctx context.Context, id models.Identity) ([]models.Secret, error)
	EditSecret(ctx context.Context, id models.Identity, req services.EditRequest) (*services.EditResult, error)
	DeleteSecret(ctx context.Context, id models.Identity, req services.DeleteRequest) (int, error)
	ShareDirectory(ctx context.Context, id models.Identity, subdirectory string, with models.SharedWith) ([]models.Secret, error)
}

// IdentityVerifier turns a bearer token into the caller's identity.
type IdentityVerifier interface {
	Verify(token string) (models.Identity, error)
}

var _ vaultapi.VaultServiceServer = (*GRPCServer)(nil)

type GRPCServer struct {
	address  string
	secrets  SecretService
	verifier IdentityVerifier
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, ss SecretService, v IdentityVerifier) (*GRPCServer, error) {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		secrets:  ss,
		verifier: v,
	}, nil
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())
	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	vaultapi.RegisterVaultServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
