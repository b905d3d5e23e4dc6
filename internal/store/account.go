package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/adwise-backend/internal/errs"
	"github.com/GregMSThompson/adwise-backend/internal/models"
)

// tokenCrypter encrypts the per-account developer token before it touches
// Firestore. Backed by Cloud KMS in production.
type tokenCrypter interface {
	KmsEncrypt(ctx context.Context, plaintext string) (string, error)
	KmsDecrypt(ctx context.Context, ciphertext string) (string, error)
}

type accountStore struct {
	client  *firestore.Client
	crypter tokenCrypter
}

func NewAccountStore(client *firestore.Client, crypter tokenCrypter) *accountStore {
	return &accountStore{client: client, crypter: crypter}
}

func (s *accountStore) collection(workspaceID string) *firestore.CollectionRef {
	return s.client.Collection("workspaces").Doc(workspaceID).Collection("accounts")
}

func (s *accountStore) Create(ctx context.Context, workspaceID string, account *models.Account) error {
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	if account.DeveloperToken != "" {
		enc, err := s.crypter.KmsEncrypt(ctx, account.DeveloperToken)
		if err != nil {
			return errs.NewExternalServiceError("kms", "failed to encrypt developer token", false, err)
		}
		account.DeveloperToken = enc
	}

	_, err := s.collection(workspaceID).Doc(account.AccountID).Set(ctx, account)
	if err != nil {
		return errs.NewDatabaseError("create", "failed to create account", err)
	}
	return nil
}

func (s *accountStore) Get(ctx context.Context, workspaceID, accountID string) (*models.Account, error) {
	doc, err := s.collection(workspaceID).Doc(accountID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("account not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get account", err)
	}
	var account models.Account
	if err := doc.DataTo(&account); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse account data", err)
	}
	if account.DeveloperToken != "" {
		dec, err := s.crypter.KmsDecrypt(ctx, account.DeveloperToken)
		if err != nil {
			return nil, errs.NewExternalServiceError("kms", "failed to decrypt developer token", false, err)
		}
		account.DeveloperToken = dec
	}
	return &account, nil
}

// List returns account metadata only; developer tokens stay encrypted and
// are cleared from the result.
func (s *accountStore) List(ctx context.Context, workspaceID string) ([]*models.Account, error) {
	docs, err := s.collection(workspaceID).Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list accounts", err)
	}
	accounts := make([]*models.Account, 0, len(docs))
	for _, d := range docs {
		var account models.Account
		if err := d.DataTo(&account); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse account data", err)
		}
		account.DeveloperToken = ""
		accounts = append(accounts, &account)
	}
	return accounts, nil
}

func (s *accountStore) Delete(ctx context.Context, workspaceID, accountID string) error {
	_, err := s.collection(workspaceID).Doc(accountID).Delete(ctx)
	if err != nil {
		return errs.NewDatabaseError("delete", "failed to delete account", err)
	}
	return nil
}
