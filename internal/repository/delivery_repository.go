package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/unclebandit/engagesphere-dashboard/internal/model"
)

type DeliveryRepository struct {
	DB *sql.DB
}

// Create records a delivery. Creating the same campaign/recipient pair twice
// returns the existing row.
func (r *DeliveryRepository) Create(ctx context.Context, d *model.Delivery) error {
	existing, err := r.Get(ctx, d.CampaignID, d.Recipient)
	if err != nil {
		return err
	}
	if existing != nil {
		*d = *existing
		return nil
	}

	now := time.Now().UTC()
	if d.Status == "" {
		d.Status = model.DeliveryPending
	}
	d.CreatedAt = now
	d.UpdatedAt = now

	query := `
        INSERT INTO deliveries (campaign_id, recipient, status, last_error, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		d.CampaignID,
		d.Recipient,
		d.Status,
		d.LastError,
		d.CreatedAt,
		d.UpdatedAt,
	).Scan(&d.ID)
}

// Get returns the delivery for a campaign and recipient, or nil if there is none.
func (r *DeliveryRepository) Get(ctx context.Context, campaignID, recipient string) (*model.Delivery, error) {
	query := `
        SELECT id, campaign_id, recipient, status, last_error, created_at, updated_at
        FROM deliveries
        WHERE campaign_id=$1 AND recipient=$2
    `
	var d model.Delivery
	err := r.DB.QueryRowContext(ctx, query, campaignID, recipient).Scan(
		&d.ID,
		&d.CampaignID,
		&d.Recipient,
		&d.Status,
		&d.LastError,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *DeliveryRepository) UpdateStatus(ctx context.Context, id int, status model.DeliveryStatus, lastError string) error {
	query := `UPDATE deliveries SET status=$1, last_error=$2, updated_at=NOW() WHERE id=$3`
	_, err := r.DB.ExecContext(ctx, query, status, lastError, id)
	return err
}

// Stats counts a campaign's deliveries by status.
func (r *DeliveryRepository) Stats(ctx context.Context, campaignID string) (map[model.DeliveryStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM deliveries WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[model.DeliveryStatus]int{
		model.DeliveryPending: 0,
		model.DeliverySent:    0,
		model.DeliveryFailed:  0,
	}
	for rows.Next() {
		var status model.DeliveryStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}
