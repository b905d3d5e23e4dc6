package services

import (
	"context"
	"errors"
	"testing"

	"github.com/GregMSThompson/adwise-backend/internal/dto"
	"github.com/GregMSThompson/adwise-backend/internal/errs"
	"github.com/GregMSThompson/adwise-backend/internal/models"
	"github.com/GregMSThompson/adwise-backend/pkg/helpers"
)

type fakeAccountWriteStore struct {
	accounts  map[string]*models.Account
	createErr error
}

func newFakeAccountWriteStore() *fakeAccountWriteStore {
	return &fakeAccountWriteStore{accounts: map[string]*models.Account{}}
}

func (f *fakeAccountWriteStore) Create(ctx context.Context, workspaceID string, account *models.Account) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.accounts[account.AccountID] = account
	return nil
}

func (f *fakeAccountWriteStore) Get(ctx context.Context, workspaceID, accountID string) (*models.Account, error) {
	account, ok := f.accounts[accountID]
	if !ok {
		return nil, errs.NewNotFoundError("account not found")
	}
	return account, nil
}

func (f *fakeAccountWriteStore) List(ctx context.Context, workspaceID string) ([]*models.Account, error) {
	var out []*models.Account
	for _, a := range f.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAccountWriteStore) Delete(ctx context.Context, workspaceID, accountID string) error {
	delete(f.accounts, accountID)
	return nil
}

type fakeVault struct {
	stored  map[string]string
	deleted []string
}

func newFakeVault() *fakeVault {
	return &fakeVault{stored: map[string]string{}}
}

func (f *fakeVault) StoreAccessToken(ctx context.Context, workspaceID, accountID, token string) error {
	f.stored[accountID] = token
	return nil
}

func (f *fakeVault) DeleteAccessToken(ctx context.Context, workspaceID, accountID string) error {
	f.deleted = append(f.deleted, accountID)
	delete(f.stored, accountID)
	return nil
}

func TestConnectAccount(t *testing.T) {
	store := newFakeAccountWriteStore()
	vault := newFakeVault()
	svc := NewAccountsService(store, vault)

	account, err := svc.Connect(helpers.TestCtx(), testWorkspace(), dto.ConnectAccountRequest{
		Platform:    "google",
		ExternalID:  "123-456-7890",
		Name:        "Main Google Ads",
		AccessToken: "tok-abc",
	})
	if err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	if account.Status != "active" {
		t.Fatalf("status mismatch: %q", account.Status)
	}
	if vault.stored[account.AccountID] != "tok-abc" {
		t.Fatalf("access token not stored: %+v", vault.stored)
	}
}

func TestConnectAccountDuplicate(t *testing.T) {
	store := newFakeAccountWriteStore()
	store.accounts["existing"] = &models.Account{
		AccountID:  "existing",
		Platform:   "google",
		ExternalID: "123",
	}
	svc := NewAccountsService(store, newFakeVault())

	_, err := svc.Connect(helpers.TestCtx(), testWorkspace(), dto.ConnectAccountRequest{
		Platform:    "google",
		ExternalID:  "123",
		AccessToken: "tok",
	})
	var exists *errs.AlreadyExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("expected already exists error, got %v", err)
	}
}

func TestConnectAccountMissingFields(t *testing.T) {
	svc := NewAccountsService(newFakeAccountWriteStore(), newFakeVault())

	_, err := svc.Connect(helpers.TestCtx(), testWorkspace(), dto.ConnectAccountRequest{
		Platform: "google",
	})
	var validation *errs.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConnectAccountRollsBackTokenOnCreateFailure(t *testing.T) {
	store := newFakeAccountWriteStore()
	store.createErr = errors.New("firestore down")
	vault := newFakeVault()
	svc := NewAccountsService(store, vault)

	_, err := svc.Connect(helpers.TestCtx(), testWorkspace(), dto.ConnectAccountRequest{
		Platform:    "google",
		ExternalID:  "123",
		AccessToken: "tok",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(vault.stored) != 0 {
		t.Fatalf("token should be rolled back: %+v", vault.stored)
	}
}

func TestDisconnectAccount(t *testing.T) {
	store := newFakeAccountWriteStore()
	store.accounts["a-1"] = &models.Account{AccountID: "a-1"}
	vault := newFakeVault()
	vault.stored["a-1"] = "tok"
	svc := NewAccountsService(store, vault)

	if err := svc.Disconnect(helpers.TestCtx(), testWorkspace(), "a-1"); err != nil {
		t.Fatalf("Disconnect error: %v", err)
	}
	if _, ok := store.accounts["a-1"]; ok {
		t.Fatal("account should be deleted")
	}
	if len(vault.deleted) != 1 || vault.deleted[0] != "a-1" {
		t.Fatalf("token should be deleted: %+v", vault.deleted)
	}
}

func TestDisconnectUnknownAccount(t *testing.T) {
	svc := NewAccountsService(newFakeAccountWriteStore(), newFakeVault())

	err := svc.Disconnect(helpers.TestCtx(), testWorkspace(), "missing")
	var notFound *errs.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}
