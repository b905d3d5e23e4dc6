package store

import (
	"context"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/adwise-backend/internal/errs"
	"github.com/GregMSThompson/adwise-backend/internal/models"
)

// CampaignQuery filters the campaign listing. An empty or "all" status
// matches every campaign.
type CampaignQuery struct {
	Status   string
	Platform string
}

type campaignStore struct {
	client *firestore.Client
}

func NewCampaignStore(client *firestore.Client) *campaignStore {
	return &campaignStore{client: client}
}

func (s *campaignStore) collection(workspaceID string) *firestore.CollectionRef {
	return s.client.Collection("workspaces").Doc(workspaceID).Collection("campaigns")
}

func (s *campaignStore) List(ctx context.Context, workspaceID string, q CampaignQuery) ([]*models.Campaign, error) {
	query := s.collection(workspaceID).Query
	if q.Status != "" && q.Status != "all" {
		query = query.Where("status", "==", q.Status)
	}
	if q.Platform != "" {
		query = query.Where("platform", "==", q.Platform)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list campaigns", err)
	}
	campaigns := make([]*models.Campaign, 0, len(docs))
	for _, d := range docs {
		var c models.Campaign
		if err := d.DataTo(&c); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse campaign data", err)
		}
		campaigns = append(campaigns, &c)
	}
	return campaigns, nil
}
