package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/GregMSThompson/adwise-backend/internal/bootstrap"
	"github.com/GregMSThompson/adwise-backend/internal/config"
	"github.com/GregMSThompson/adwise-backend/internal/crypto"
	"github.com/GregMSThompson/adwise-backend/internal/handlers"
	"github.com/GregMSThompson/adwise-backend/internal/response"
	"github.com/GregMSThompson/adwise-backend/internal/router"
	"github.com/GregMSThompson/adwise-backend/internal/services"
	"github.com/GregMSThompson/adwise-backend/internal/store"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// helpers
	kmsHelper := crypto.NewKMS(bs.KMS, cfg.KMSKeyName)

	// stores
	cstore := store.NewChatStore(bs.Firestore)
	mstore := store.NewMetricStore(bs.Firestore)
	campstore := store.NewCampaignStore(bs.Firestore)
	rstore := store.NewRecommendationStore(bs.Firestore)
	astore := store.NewAccountStore(bs.Firestore, kmsHelper)
	vault := store.NewPlatformSecretsStore(bs.Secrets, cfg.ProjectID)

	// services
	iserv := services.NewInsightsService(mstore, campstore, astore, rstore)
	agserv := services.NewAgentService(bs.VertexAdapter, iserv)
	chserv := services.NewChatService(cstore, agserv, bs.VertexAdapter)
	acserv := services.NewAccountsService(astore, vault)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.Firebase = bs.Firebase
	deps.ChatSvc = chserv
	deps.InsightsSvc = iserv
	deps.AccountSvc = acserv

	// router
	r := router.NewRouter(deps)
	err = http.ListenAndServe(":"+cfg.Port, r)
	exitOnError("server start failed", err, bs.Log)
}
