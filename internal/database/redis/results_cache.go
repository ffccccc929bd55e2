package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"observation-service/internal/models"
	"observation-service/internal/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const resultsKeyPrefix = "observation:results:"

// ResultsCache keeps serialized observation results in Redis.
type ResultsCache struct {
	client *Client
	ttl    time.Duration
}

func NewResultsCache(client *Client, ttl time.Duration) *ResultsCache {
	return &ResultsCache{client: client, ttl: ttl}
}

func resultsKey(observationID uuid.UUID) string {
	return resultsKeyPrefix + observationID.String()
}

// GetResults returns nil, nil on a cache miss.
func (c *ResultsCache) GetResults(ctx context.Context, observationID uuid.UUID) (*models.SiteResults, error) {
	data, err := c.client.GetClient().Get(ctx, resultsKey(observationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached results: %w", err)
	}

	var results models.SiteResults
	if err := utils.DeserializeModel(data, &results); err != nil {
		return nil, err
	}
	return &results, nil
}

func (c *ResultsCache) SetResults(ctx context.Context, results *models.SiteResults) error {
	data, err := utils.SerializeModel(results)
	if err != nil {
		return err
	}

	if err := c.client.GetClient().Set(ctx, resultsKey(results.ObservationID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache results: %w", err)
	}
	return nil
}
