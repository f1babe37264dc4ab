// Package client talks to the RunaVault VaultService over gRPC and turns
// status codes back into the shared error taxonomy.
package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/runavault/internal/common"
	"github.com/dmitrijs2005/runavault/internal/vaultapi"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      vaultapi.VaultServiceClient
	accessToken string
	timeout     time.Duration
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, common.BearerPrefix+token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.accessToken != "" && method != vaultapi.PingMethod {
		ctx = withAccessToken(ctx, s.accessToken)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewVaultClient prepares a connection to endpointURL. The connection is
// established lazily on the first call.
func NewVaultClient(endpointURL, token string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: token, timeout: timeout}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = vaultapi.NewVaultServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.Ping(ctx, &vaultapi.PingRequest{})
	return s.mapError(err)
}

func (s *GRPCClient) CreateSecret(ctx context.Context, req *vaultapi.CreateSecretRequest) (*vaultapi.Secret, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.CreateSecret(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &resp.Secret, nil
}

func (s *GRPCClient) GetSecret(ctx context.Context, site, subdirectory string) (*vaultapi.GetSecretResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.GetSecret(ctx, &vaultapi.GetSecretRequest{Site: site, Subdirectory: subdirectory})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) ListSecrets(ctx context.Context) ([]vaultapi.Secret, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.ListSecrets(ctx, &vaultapi.ListSecretsRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Secrets, nil
}

func (s *GRPCClient) EditSecret(ctx context.Context, req *vaultapi.EditSecretRequest) (*vaultapi.EditSecretResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.EditSecret(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) DeleteSecret(ctx context.Context, req *vaultapi.DeleteSecretRequest) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.DeleteSecret(ctx, req)
	if err != nil {
		return 0, s.mapError(err)
	}
	return resp.Deleted, nil
}

func (s *GRPCClient) ShareDirectory(ctx context.Context, subdirectory string, with vaultapi.SharedWith) ([]vaultapi.Secret, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.ShareDirectory(ctx, &vaultapi.ShareDirectoryRequest{Subdirectory: subdirectory, SharedWith: with})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Secrets, nil
}

var codeErrors = map[codes.Code]error{
	codes.Unavailable:      ErrUnavailable,
	codes.DeadlineExceeded: ErrUnavailable,
	codes.Unauthenticated:  common.ErrorUnauthorized,
	codes.PermissionDenied: common.ErrorPermissionDenied,
	codes.InvalidArgument:  common.ErrorValidation,
	codes.NotFound:         common.ErrorNotFound,
	codes.AlreadyExists:    common.ErrorDuplicateSecret,
	codes.DataLoss:         common.ErrorIncompleteRecord,
	codes.Aborted:          common.ErrorInconsistentWrite,
}

// mapError converts a gRPC status into the matching taxonomy error, keeping
// the server message for display.
func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	if sentinel, ok := codeErrors[st.Code()]; ok {
		if st.Message() == "" || st.Message() == sentinel.Error() {
			return sentinel
		}
		return fmt.Errorf("%w (%s)", sentinel, st.Message())
	}
	return fmt.Errorf("%w: %s", common.ErrorInternal, st.Message())
}
