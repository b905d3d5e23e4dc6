package bootstrap

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"
	kms "cloud.google.com/go/kms/apiv1"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"firebase.google.com/go/v4/auth"

	vertexclient "github.com/GregMSThompson/adwise-backend/internal/client/vertex"
	"github.com/GregMSThompson/adwise-backend/internal/config"
	"github.com/GregMSThompson/adwise-backend/pkg/logger"
)

type Bootstrap struct {
	Log           *slog.Logger
	Firestore     *firestore.Client
	Firebase      *auth.Client
	KMS           *kms.KeyManagementClient
	Secrets       *secretmanager.Client
	VertexAdapter *vertexclient.Adapter
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)
	bs.Firestore, err = InitFirestore(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	bs.Firebase, err = InitFirebase(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.KMS, err = kms.NewKeyManagementClient(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.Secrets, err = secretmanager.NewClient(applicationCtx)
	if err != nil {
		return bs, err
	}
	bs.VertexAdapter, err = vertexclient.NewAdapter(applicationCtx, bs.Log, cfg.ProjectID, cfg.Region, cfg.VertexModel)
	if err != nil {
		return bs, err
	}

	return bs, nil
}

// Close releases every client the bootstrap opened. Safe to call on a
// partially initialized bootstrap after a Run failure.
func (bs *Bootstrap) Close() {
	if bs.VertexAdapter != nil {
		_ = bs.VertexAdapter.Close()
	}
	if bs.Secrets != nil {
		_ = bs.Secrets.Close()
	}
	if bs.KMS != nil {
		_ = bs.KMS.Close()
	}
	if bs.Firestore != nil {
		_ = bs.Firestore.Close()
	}
}
