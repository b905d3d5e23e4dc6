package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/adwise-backend/internal/dto"
	"github.com/GregMSThompson/adwise-backend/internal/errs"
	"github.com/GregMSThompson/adwise-backend/internal/models"
	"github.com/GregMSThompson/adwise-backend/pkg/logger"
)

type accountWriteStore interface {
	Create(ctx context.Context, workspaceID string, account *models.Account) error
	Get(ctx context.Context, workspaceID, accountID string) (*models.Account, error)
	List(ctx context.Context, workspaceID string) ([]*models.Account, error)
	Delete(ctx context.Context, workspaceID, accountID string) error
}

type accessTokenVault interface {
	StoreAccessToken(ctx context.Context, workspaceID, accountID, token string) error
	DeleteAccessToken(ctx context.Context, workspaceID, accountID string) error
}

// accountsService manages connected ad platform accounts. Access tokens live
// in Secret Manager, developer tokens KMS-encrypted in Firestore.
type accountsService struct {
	accounts accountWriteStore
	vault    accessTokenVault
	clockNow func() time.Time
}

func NewAccountsService(accounts accountWriteStore, vault accessTokenVault) *accountsService {
	return &accountsService{
		accounts: accounts,
		vault:    vault,
		clockNow: time.Now,
	}
}

func (s *accountsService) Connect(ctx context.Context, wc dto.WorkspaceContext, req dto.ConnectAccountRequest) (*models.Account, error) {
	if strings.TrimSpace(req.Platform) == "" {
		return nil, errs.NewValidationError("platform is required")
	}
	if strings.TrimSpace(req.ExternalID) == "" {
		return nil, errs.NewValidationError("externalId is required")
	}
	if strings.TrimSpace(req.AccessToken) == "" {
		return nil, errs.NewValidationError("accessToken is required")
	}

	existing, err := s.accounts.List(ctx, wc.WorkspaceID)
	if err != nil {
		return nil, err
	}
	for _, a := range existing {
		if a.Platform == req.Platform && a.ExternalID == req.ExternalID {
			return nil, errs.NewAlreadyExistsError("account is already connected")
		}
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = req.ExternalID
	}

	account := &models.Account{
		AccountID:      uuid.NewString(),
		Platform:       req.Platform,
		ExternalID:     req.ExternalID,
		Name:           name,
		Status:         "active",
		DeveloperToken: req.DeveloperToken,
		CreatedAt:      s.clockNow(),
	}

	if err := s.vault.StoreAccessToken(ctx, wc.WorkspaceID, account.AccountID, req.AccessToken); err != nil {
		return nil, errs.NewExternalServiceError("secretmanager", "failed to store access token", true, err)
	}
	if err := s.accounts.Create(ctx, wc.WorkspaceID, account); err != nil {
		// Best effort rollback so the vault does not hold a token for an
		// account that was never written.
		if delErr := s.vault.DeleteAccessToken(ctx, wc.WorkspaceID, account.AccountID); delErr != nil {
			logger.FromContext(ctx).Warn("access token rollback failed", "accountId", account.AccountID, "error", delErr)
		}
		return nil, err
	}

	account.DeveloperToken = ""
	return account, nil
}

func (s *accountsService) List(ctx context.Context, wc dto.WorkspaceContext) ([]*models.Account, error) {
	return s.accounts.List(ctx, wc.WorkspaceID)
}

func (s *accountsService) Disconnect(ctx context.Context, wc dto.WorkspaceContext, accountID string) error {
	if _, err := s.accounts.Get(ctx, wc.WorkspaceID, accountID); err != nil {
		return err
	}
	if err := s.vault.DeleteAccessToken(ctx, wc.WorkspaceID, accountID); err != nil {
		logger.FromContext(ctx).Warn("access token delete failed", "accountId", accountID, "error", err)
	}
	return s.accounts.Delete(ctx, wc.WorkspaceID, accountID)
}
