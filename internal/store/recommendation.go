package store

import (
	"context"

	"cloud.google.com/go/firestore"

	"github.com/GregMSThompson/adwise-backend/internal/errs"
	"github.com/GregMSThompson/adwise-backend/internal/models"
)

type RecommendationQuery struct {
	Status   string
	Priority string
	Type     string
}

type recommendationStore struct {
	client *firestore.Client
}

func NewRecommendationStore(client *firestore.Client) *recommendationStore {
	return &recommendationStore{client: client}
}

func (s *recommendationStore) collection(workspaceID string) *firestore.CollectionRef {
	return s.client.Collection("workspaces").Doc(workspaceID).Collection("recommendations")
}

// List returns matching recommendations unordered; the service layer applies
// the priority-then-recency ordering so no composite index is required.
func (s *recommendationStore) List(ctx context.Context, workspaceID string, q RecommendationQuery) ([]models.Recommendation, error) {
	query := s.collection(workspaceID).Query
	if q.Status != "" {
		query = query.Where("status", "==", q.Status)
	}
	if q.Priority != "" {
		query = query.Where("priority", "==", q.Priority)
	}
	if q.Type != "" {
		query = query.Where("type", "==", q.Type)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list recommendations", err)
	}
	recs := make([]models.Recommendation, 0, len(docs))
	for _, d := range docs {
		var rec models.Recommendation
		if err := d.DataTo(&rec); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse recommendation data", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
