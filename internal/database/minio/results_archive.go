package minio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"observation-service/internal/models"
	"observation-service/internal/utils"

	"github.com/google/uuid"
)

// ObjectStore is the subset of MinioClient the archive needs.
type ObjectStore interface {
	UploadBytes(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error
	GetBytes(ctx context.Context, bucketName, objectName string) ([]byte, error)
}

// ResultsArchive writes JSON snapshots of observation results, one object
// per observation under sites/<site id>/observations/<observation id>.json.
type ResultsArchive struct {
	store  ObjectStore
	bucket string
}

func NewResultsArchive(store ObjectStore, bucket string) *ResultsArchive {
	return &ResultsArchive{store: store, bucket: bucket}
}

func ObjectName(siteID, observationID uuid.UUID) string {
	return fmt.Sprintf("sites/%s/observations/%s.json", siteID, observationID)
}

func (a *ResultsArchive) ArchiveResults(ctx context.Context, results *models.SiteResults) error {
	data, err := utils.SerializeModel(results)
	if err != nil {
		return err
	}

	objectName := ObjectName(results.PlantingSiteID, results.ObservationID)
	if err := a.store.UploadBytes(ctx, a.bucket, objectName, data, "application/json"); err != nil {
		return err
	}

	slog.Info("Archived observation results",
		"observation_id", results.ObservationID,
		"bucket", a.bucket,
		"object", objectName,
		"bytes", len(data))
	return nil
}

// LoadResults returns nil, nil when no snapshot was archived.
func (a *ResultsArchive) LoadResults(ctx context.Context, siteID, observationID uuid.UUID) (*models.SiteResults, error) {
	data, err := a.store.GetBytes(ctx, a.bucket, ObjectName(siteID, observationID))
	if errors.Is(err, ErrObjectNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var results models.SiteResults
	if err := utils.DeserializeModel(data, &results); err != nil {
		return nil, err
	}
	return &results, nil
}
