package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/anova.report/internal/anova"
)

// ErrDatasetNotFound is returned when no dataset has the requested ID.
var ErrDatasetNotFound = errors.New("dataset not found")

// Dataset sources recorded alongside each stored dataset.
const (
	SourceAPI    = "api"
	SourceUpload = "upload"
	SourceCLI    = "cli"
)

// DatasetInfo is the metadata row for a stored dataset.
type DatasetInfo struct {
	DatasetID        string    `json:"dataset_id"`
	Name             string    `json:"name"`
	Source           string    `json:"source"`
	ObservationCount int       `json:"observation_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// StoredDataset is a dataset together with its observations in
// submission order.
type StoredDataset struct {
	DatasetInfo
	Observations anova.Dataset `json:"observations"`
}

// CreateDataset stores the observations under a freshly generated ID.
// Observations are validated before anything is written.
func (db *DB) CreateDataset(ctx context.Context, name, source string, data anova.Dataset) (*DatasetInfo, error) {
	if len(data) == 0 {
		return nil, anova.ErrEmptyInput
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if source == "" {
		source = SourceAPI
	}

	info := &DatasetInfo{
		DatasetID:        uuid.NewString(),
		Name:             name,
		Source:           source,
		ObservationCount: len(data),
		CreatedAt:        db.clock.Now().UTC().Truncate(time.Second),
	}

	err := retryOnBusy(func() error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO datasets (dataset_id, name, source, observation_count, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, info.DatasetID, info.Name, info.Source, info.ObservationCount, info.CreatedAt.Unix()); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO observations (dataset_id, position, attribute1, attribute2, attribute3)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, o := range data {
			if _, err := stmt.ExecContext(ctx, info.DatasetID, i, o.Attribute1, o.Attribute2, o.Attribute3); err != nil {
				return fmt.Errorf("observation %d: %w", i, err)
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset: %w", err)
	}
	return info, nil
}

// ListDatasets returns dataset metadata, newest first.
func (db *DB) ListDatasets(ctx context.Context) ([]DatasetInfo, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT dataset_id, name, source, observation_count, created_at
		FROM datasets
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	infos := []DatasetInfo{}
	for rows.Next() {
		var info DatasetInfo
		var createdAtUnix int64
		if err := rows.Scan(&info.DatasetID, &info.Name, &info.Source, &info.ObservationCount, &createdAtUnix); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		info.CreatedAt = time.Unix(createdAtUnix, 0).UTC()
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate datasets: %w", err)
	}
	return infos, nil
}

// GetDataset returns the dataset and its observations in submission order.
func (db *DB) GetDataset(ctx context.Context, id string) (*StoredDataset, error) {
	var ds StoredDataset
	var createdAtUnix int64
	err := db.QueryRowContext(ctx, `
		SELECT dataset_id, name, source, observation_count, created_at
		FROM datasets
		WHERE dataset_id = ?
	`, id).Scan(&ds.DatasetID, &ds.Name, &ds.Source, &ds.ObservationCount, &createdAtUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}
	ds.CreatedAt = time.Unix(createdAtUnix, 0).UTC()

	rows, err := db.QueryContext(ctx, `
		SELECT attribute1, attribute2, attribute3
		FROM observations
		WHERE dataset_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get observations: %w", err)
	}
	defer rows.Close()

	ds.Observations = make(anova.Dataset, 0, ds.ObservationCount)
	for rows.Next() {
		var o anova.Observation
		if err := rows.Scan(&o.Attribute1, &o.Attribute2, &o.Attribute3); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		ds.Observations = append(ds.Observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate observations: %w", err)
	}
	return &ds, nil
}

// DeleteDataset removes the dataset and, by cascade, its observations.
func (db *DB) DeleteDataset(ctx context.Context, id string) error {
	var result sql.Result
	err := retryOnBusy(func() error {
		var err error
		result, err = db.ExecContext(ctx, `DELETE FROM datasets WHERE dataset_id = ?`, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	return nil
}
