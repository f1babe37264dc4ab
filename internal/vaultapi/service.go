package vaultapi

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "runavault.VaultService"

// Full method names, as seen by interceptors.
const (
	PingMethod           = "/" + ServiceName + "/Ping"
	CreateSecretMethod   = "/" + ServiceName + "/CreateSecret"
	GetSecretMethod      = "/" + ServiceName + "/GetSecret"
	ListSecretsMethod    = "/" + ServiceName + "/ListSecrets"
	EditSecretMethod     = "/" + ServiceName + "/EditSecret"
	DeleteSecretMethod   = "/" + ServiceName + "/DeleteSecret"
	ShareDirectoryMethod = "/" + ServiceName + "/ShareDirectory"
)

// VaultServiceServer is implemented by the server transport.
type VaultServiceServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	CreateSecret(context.Context, *CreateSecretRequest) (*CreateSecretResponse, error)
	GetSecret(context.Context, *GetSecretRequest) (*GetSecretResponse, error)
	ListSecrets(context.Context, *ListSecretsRequest) (*ListSecretsResponse, error)
	EditSecret(context.Context, *EditSecretRequest) (*EditSecretResponse, error)
	DeleteSecret(context.Context, *DeleteSecretRequest) (*DeleteSecretResponse, error)
	ShareDirectory(context.Context, *ShareDirectoryRequest) (*ShareDirectoryResponse, error)
}

func RegisterVaultServiceServer(s grpc.ServiceRegistrar, srv VaultServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary adapts a typed server method to grpc.MethodHandler.
func unary[Req, Resp any](fullMethod string, call func(VaultServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(VaultServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(VaultServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VaultServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unary(PingMethod, VaultServiceServer.Ping)},
		{MethodName: "CreateSecret", Handler: unary(CreateSecretMethod, VaultServiceServer.CreateSecret)},
		{MethodName: "GetSecret", Handler: unary(GetSecretMethod, VaultServiceServer.GetSecret)},
		{MethodName: "ListSecrets", Handler: unary(ListSecretsMethod, VaultServiceServer.ListSecrets)},
		{MethodName: "EditSecret", Handler: unary(EditSecretMethod, VaultServiceServer.EditSecret)},
		{MethodName: "DeleteSecret", Handler: unary(DeleteSecretMethod, VaultServiceServer.DeleteSecret)},
		{MethodName: "ShareDirectory", Handler: unary(ShareDirectoryMethod, VaultServiceServer.ShareDirectory)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "runavault/vault.json",
}

// VaultServiceClient is the client API for VaultService. Every call is sent
// with the JSON content-subtype.
type VaultServiceClient interface {
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	CreateSecret(ctx context.Context, in *CreateSecretRequest, opts ...grpc.CallOption) (*CreateSecretResponse, error)
	GetSecret(ctx context.Context, in *GetSecretRequest, opts ...grpc.CallOption) (*GetSecretResponse, error)
	ListSecrets(ctx context.Context, in *ListSecretsRequest, opts ...grpc.CallOption) (*ListSecretsResponse, error)
	EditSecret(ctx context.Context, in *EditSecretRequest, opts ...grpc.CallOption) (*EditSecretResponse, error)
	DeleteSecret(ctx context.Context, in *DeleteSecretRequest, opts ...grpc.CallOption) (*DeleteSecretResponse, error)
	ShareDirectory(ctx context.Context, in *ShareDirectoryRequest, opts ...grpc.CallOption) (*ShareDirectoryResponse, error)
}

type vaultServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewVaultServiceClient(cc grpc.ClientConnInterface) VaultServiceClient {
	return &vaultServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *vaultServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, PingMethod, in, opts)
}

func (c *vaultServiceClient) CreateSecret(ctx context.Context, in *CreateSecretRequest, opts ...grpc.CallOption) (*CreateSecretResponse, error) {
	return invoke[CreateSecretResponse](ctx, c.cc, CreateSecretMethod, in, opts)
}

func (c *vaultServiceClient) GetSecret(ctx context.Context, in *GetSecretRequest, opts ...grpc.CallOption) (*GetSecretResponse, error) {
	return invoke[GetSecretResponse](ctx, c.cc, GetSecretMethod, in, opts)
}

func (c *vaultServiceClient) ListSecrets(ctx context.Context, in *ListSecretsRequest, opts ...grpc.CallOption) (*ListSecretsResponse, error) {
	return invoke[ListSecretsResponse](ctx, c.cc, ListSecretsMethod, in, opts)
}

func (c *vaultServiceClient) EditSecret(ctx context.Context, in *EditSecretRequest, opts ...grpc.CallOption) (*EditSecretResponse, error) {
	return invoke[EditSecretResponse](ctx, c.cc, EditSecretMethod, in, opts)
}

func (c *vaultServiceClient) DeleteSecret(ctx context.Context, in *DeleteSecretRequest, opts ...grpc.CallOption) (*DeleteSecretResponse, error) {
	return invoke[DeleteSecretResponse](ctx, c.cc, DeleteSecretMethod, in, opts)
}

func (c *vaultServiceClient) ShareDirectory(ctx context.Context, in *ShareDirectoryRequest, opts ...grpc.CallOption) (*ShareDirectoryResponse, error) {
	return invoke[ShareDirectoryResponse](ctx, c.cc, ShareDirectoryMethod, in, opts)
}
