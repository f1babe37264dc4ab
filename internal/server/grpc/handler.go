package grpc

import (
	"context"

	"github.com/dmitrijs2005/runavault/internal/server/models"
	"github.com/dmitrijs2005/runavault/internal/server/payload"
	"github.com/dmitrijs2005/runavault/internal/server/services"
	"github.com/dmitrijs2005/runavault/internal/vaultapi"
)

func (s *GRPCServer) Ping(ctx context.Context, req *vaultapi.PingRequest) (*vaultapi.PingResponse, error) {
	return &vaultapi.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) CreateSecret(ctx context.Context, req *vaultapi.CreateSecretRequest) (*vaultapi.CreateSecretResponse, error) {
	id, _ := IdentityFromContext(ctx)

	secret, err := s.secrets.CreateSecret(ctx, id, services.CreateRequest{
		Site:         req.Site,
		Username:     req.Username,
		Password:     req.Password,
		Encrypted:    req.Encrypted,
		SharedWith:   toSharedWith(req.SharedWith),
		Subdirectory: req.Subdirectory,
		Notes:        req.Notes,
		Tags:         req.Tags,
		Favorite:     req.Favorite,
		PasswordID:   req.PasswordID,
	})
	if err != nil {
		return nil, s.fail(ctx, "create secret", err)
	}

	return &vaultapi.CreateSecretResponse{Secret: fromSecret(*secret)}, nil
}

func (s *GRPCServer) GetSecret(ctx context.Context, req *vaultapi.GetSecretRequest) (*vaultapi.GetSecretResponse, error) {
	id, _ := IdentityFromContext(ctx)

	r, err := s.secrets.GetSecret(ctx, id, req.Site, req.Subdirectory)
	if err != nil {
		return nil, s.fail(ctx, "get secret", err)
	}

	return &vaultapi.GetSecretResponse{
		Site:         r.Site,
		Username:     r.Username,
		Subdirectory: r.Subdirectory,
		Password:     payload.Raw(r.Payload),
		OwnerID:      r.OwnerID,
		Access:       string(r.Access),
	}, nil
}

func (s *GRPCServer) ListSecrets(ctx context.Context, req *vaultapi.ListSecretsRequest) (*vaultapi.ListSecretsResponse, error) {
	id, _ := IdentityFromContext(ctx)

	list, err := s.secrets.ListSecrets(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "list secrets", err)
	}

	return &vaultapi.ListSecretsResponse{Secrets: fromSecrets(list)}, nil
}

func (s *GRPCServer) EditSecret(ctx context.Context, req *vaultapi.EditSecretRequest) (*vaultapi.EditSecretResponse, error) {
	id, _ := IdentityFromContext(ctx)

	edit := services.EditRequest{
		Ref:          req.Ref,
		OwnerID:      req.OwnerID,
		Username:     req.Username,
		Password:     req.Password,
		Encrypted:    req.Encrypted,
		Subdirectory: req.Subdirectory,
		Notes:        req.Notes,
		Tags:         req.Tags,
		Favorite:     req.Favorite,
	}
	if req.SharedWith != nil {
		sw := toSharedWith(*req.SharedWith)
		edit.SharedWith = &sw
	}

	res, err := s.secrets.EditSecret(ctx, id, edit)
	if err != nil {
		return nil, s.fail(ctx, "edit secret", err)
	}

	return &vaultapi.EditSecretResponse{Secret: fromSecret(res.Secret), Moved: res.Moved}, nil
}

func (s *GRPCServer) DeleteSecret(ctx context.Context, req *vaultapi.DeleteSecretRequest) (*vaultapi.DeleteSecretResponse, error) {
	id, _ := IdentityFromContext(ctx)

	n, err := s.secrets.DeleteSecret(ctx, id, services.DeleteRequest{
		Site:         req.Site,
		Subdirectory: req.Subdirectory,
		OwnerID:      req.OwnerID,
	})
	if err != nil {
		return nil, s.fail(ctx, "delete secret", err)
	}

	return &vaultapi.DeleteSecretResponse{Deleted: n}, nil
}

func (s *GRPCServer) ShareDirectory(ctx context.Context, req *vaultapi.ShareDirectoryRequest) (*vaultapi.ShareDirectoryResponse, error) {
	id, _ := IdentityFromContext(ctx)

	list, err := s.secrets.ShareDirectory(ctx, id, req.Subdirectory, toSharedWith(req.SharedWith))
	if err != nil {
		return nil, s.fail(ctx, "share directory", err)
	}

	return &vaultapi.ShareDirectoryResponse{Secrets: fromSecrets(list)}, nil
}

func toSharedWith(sw vaultapi.SharedWith) models.SharedWith {
	return models.SharedWith{Users: sw.Users, Groups: sw.Groups, Roles: sw.Roles}
}

func fromSecret(m models.Secret) vaultapi.Secret {
	return vaultapi.Secret{
		OwnerID:      m.OwnerID,
		Site:         m.Site,
		Key:          m.Key,
		PasswordID:   m.PasswordID,
		Subdirectory: m.Subdirectory,
		Username:     m.Username,
		Password:     m.Payload,
		Encrypted:    m.Encrypted,
		SharedWith: vaultapi.SharedWith{
			Users:  m.SharedWith.Users,
			Groups: m.SharedWith.Groups,
			Roles:  m.SharedWith.Roles,
		},
		Notes:        m.Notes,
		Tags:         m.Tags,
		Favorite:     m.Favorite,
		Version:      m.Version,
		LastModified: m.LastModified,
		OwnedByMe:    m.OwnedByMe,
	}
}

func fromSecrets(list []models.Secret) []vaultapi.Secret {
	out := make([]vaultapi.Secret, 0, len(list))
	for _, m := range list {
		out = append(out, fromSecret(m))
	}
	return out
}
