package grpc

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dmitrijs2005/runavault/internal/common"
	"github.com/dmitrijs2005/runavault/internal/logging"
	"github.com/dmitrijs2005/runavault/internal/server/auth"
	"github.com/dmitrijs2005/runavault/internal/server/models"
	"github.com/dmitrijs2005/runavault/internal/server/repositories/secrets"
	"github.com/dmitrijs2005/runavault/internal/server/services"
	"github.com/dmitrijs2005/runavault/internal/vaultapi"
)

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv, err := NewGRPCServer("127.0.0.1:0", logging.Nop(), &fakeSecrets{}, auth.NewVerifier([]byte("k")))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv, err := NewGRPCServer("127.0.0.1:99999", logging.Nop(), &fakeSecrets{}, auth.NewVerifier([]byte("k")))
	require.NoError(t, err)

	assert.Error(t, srv.Run(context.Background()))
}

// startVault serves a memory-backed SecretService over an in-process
// connection.
func startVault(t *testing.T) vaultapi.VaultServiceClient {
	t.Helper()

	svc := services.NewSecretService(secrets.NewMemoryRepository(), logging.Nop())
	srv, err := NewGRPCServer("", logging.Nop(), svc, auth.NewVerifier([]byte(testSecret)))
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.serve(ctx, lis)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return vaultapi.NewVaultServiceClient(conn)
}

func as(t *testing.T, id models.Identity) context.Context {
	t.Helper()
	token, err := auth.GenerateToken(id, []byte(testSecret), time.Hour)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, common.BearerPrefix+token)
}

func TestVaultService_EndToEnd(t *testing.T) {
	c := startVault(t)

	owner := models.Identity{Subject: "alice"}
	member := models.Identity{Subject: "bob", Groups: []string{"devs"}}
	outsider := models.Identity{Subject: "carol", Groups: []string{"ops"}}

	pong, err := c.Ping(context.Background(), &vaultapi.PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", pong.Status)

	_, err = c.ListSecrets(context.Background(), &vaultapi.ListSecretsRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	created, err := c.CreateSecret(as(t, owner), &vaultapi.CreateSecretRequest{
		Site:         "example.com",
		Username:     "alice@example.com",
		Password:     json.RawMessage(`"c2VhbGVk"`),
		SharedWith:   vaultapi.SharedWith{Groups: []string{"devs"}},
		Subdirectory: "work",
	})
	require.NoError(t, err)
	assert.Equal(t, "work", created.Secret.Subdirectory)
	assert.Equal(t, []string{"devs"}, created.Secret.SharedWith.Groups)

	got, err := c.GetSecret(as(t, member), &vaultapi.GetSecretRequest{Site: "example.com", Subdirectory: "work"})
	require.NoError(t, err)
	assert.Equal(t, "group", got.Access)
	assert.Equal(t, "alice", got.OwnerID)
	assert.JSONEq(t, `{"encryptedPassword":"c2VhbGVk","sharedWith":{"users":[],"groups":[]}}`, string(got.Password))

	_, err = c.GetSecret(as(t, outsider), &vaultapi.GetSecretRequest{Site: "example.com", Subdirectory: "work"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	list, err := c.ListSecrets(as(t, member), &vaultapi.ListSecretsRequest{})
	require.NoError(t, err)
	require.Len(t, list.Secrets, 1)
	assert.False(t, list.Secrets[0].OwnedByMe)

	_, err = c.EditSecret(as(t, member), &vaultapi.EditSecretRequest{Ref: created.Secret.Key, OwnerID: "alice"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = c.CreateSecret(as(t, owner), &vaultapi.CreateSecretRequest{Site: "", Username: "u", Password: json.RawMessage(`"p"`)})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	deleted, err := c.DeleteSecret(as(t, owner), &vaultapi.DeleteSecretRequest{Site: "example.com", Subdirectory: "work"})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted.Deleted)

	_, err = c.GetSecret(as(t, member), &vaultapi.GetSecretRequest{Site: "example.com", Subdirectory: "work"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}
