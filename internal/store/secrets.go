package store

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Secrets path
// projects/{project}/secrets/platform-access-token-{workspaceID}-{accountID}/versions/{version}

type platformSecretsStore struct {
	client    *secretmanager.Client
	projectID string
	prefix    string
}

func NewPlatformSecretsStore(client *secretmanager.Client, projectID string) *platformSecretsStore {
	return &platformSecretsStore{
		client:    client,
		projectID: projectID,
		prefix:    "platform-access-token",
	}
}

func (s *platformSecretsStore) secretID(workspaceID, accountID string) string {
	return fmt.Sprintf("%s-%s-%s", s.prefix, workspaceID, accountID)
}

func (s *platformSecretsStore) secretName(workspaceID, accountID string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.projectID, s.secretID(workspaceID, accountID))
}

func (s *platformSecretsStore) ensureSecret(ctx context.Context, workspaceID, accountID string) error {
	name := s.secretName(workspaceID, accountID)
	_, err := s.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{Name: name})
	if status.Code(err) == codes.NotFound {
		_, err = s.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
			Parent:   fmt.Sprintf("projects/%s", s.projectID),
			SecretId: s.secretID(workspaceID, accountID),
			Secret: &secretmanagerpb.Secret{
				Replication: &secretmanagerpb.Replication{
					Replication: &secretmanagerpb.Replication_Automatic_{Automatic: &secretmanagerpb.Replication_Automatic{}},
				},
			},
		})
	}
	return err
}

func (s *platformSecretsStore) StoreAccessToken(ctx context.Context, workspaceID, accountID, token string) error {
	if err := s.ensureSecret(ctx, workspaceID, accountID); err != nil {
		return err
	}
	_, err := s.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent: s.secretName(workspaceID, accountID),
		Payload: &secretmanagerpb.SecretPayload{
			Data: []byte(token),
		},
	})
	return err
}

func (s *platformSecretsStore) GetAccessToken(ctx context.Context, workspaceID, accountID string) (string, error) {
	res, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("%s/versions/latest", s.secretName(workspaceID, accountID)),
	})
	if err != nil {
		return "", err
	}
	return string(res.Payload.Data), nil
}

func (s *platformSecretsStore) DeleteAccessToken(ctx context.Context, workspaceID, accountID string) error {
	err := s.client.DeleteSecret(ctx, &secretmanagerpb.DeleteSecretRequest{
		Name: s.secretName(workspaceID, accountID),
	})
	return err
}
