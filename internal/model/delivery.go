package model

import "time"

type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Delivery is one message attempt to an audience member of a campaign.
type Delivery struct {
	ID         int            `db:"id" json:"id"`
	CampaignID string         `db:"campaign_id" json:"campaignId"`
	Recipient  string         `db:"recipient" json:"recipient"`
	Status     DeliveryStatus `db:"status" json:"status"`
	LastError  string         `db:"last_error" json:"lastError,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updatedAt"`
}
