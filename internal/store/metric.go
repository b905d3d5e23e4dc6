package store

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/GregMSThompson/adwise-backend/internal/errs"
	"github.com/GregMSThompson/adwise-backend/internal/models"
)

// MetricQuery filters daily metric rows. Dates are inclusive YYYY-MM-DD.
type MetricQuery struct {
	DateFrom    string
	DateTo      string
	AccountIDs  []string
	CampaignIDs []string
}

type metricStore struct {
	client *firestore.Client
}

func NewMetricStore(client *firestore.Client) *metricStore {
	return &metricStore{client: client}
}

func (s *metricStore) collection(workspaceID string) *firestore.CollectionRef {
	return s.client.Collection("workspaces").Doc(workspaceID).Collection("metrics")
}

// Query streams matching rows on a channel so aggregation never holds a full
// window in memory. Account/campaign filters beyond Firestore's "in" limit
// are applied client-side.
func (s *metricStore) Query(ctx context.Context, workspaceID string, q MetricQuery) (<-chan *models.MetricRow, <-chan error) {
	rowCh := make(chan *models.MetricRow, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		query := s.collection(workspaceID).Query.OrderBy("date", firestore.Asc)
		if q.DateFrom != "" {
			query = query.Where("date", ">=", q.DateFrom)
		}
		if q.DateTo != "" {
			query = query.Where("date", "<=", q.DateTo)
		}
		if len(q.AccountIDs) > 0 && len(q.AccountIDs) <= 10 {
			query = query.Where("accountId", "in", q.AccountIDs)
		}

		accountSet := toSet(q.AccountIDs)
		campaignSet := toSet(q.CampaignIDs)

		iter := query.Documents(ctx)
		defer iter.Stop()
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				errCh <- errs.NewDatabaseError("read", "failed to query metric rows", err)
				return
			}
			var row models.MetricRow
			if err := doc.DataTo(&row); err != nil {
				errCh <- errs.NewDatabaseError("read", "failed to parse metric row data", err)
				return
			}
			if len(accountSet) > 0 {
				if _, ok := accountSet[row.AccountID]; !ok {
					continue
				}
			}
			if len(campaignSet) > 0 {
				if _, ok := campaignSet[row.CampaignID]; !ok {
					continue
				}
			}
			select {
			case rowCh <- &row:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
	}()

	return rowCh, errCh
}

func toSet(keys []string) map[string]struct{} {
	if len(keys) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
