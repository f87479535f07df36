// cmd/seeder/main.go
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/unclebandit/engagesphere-dashboard/internal/config"
	"github.com/unclebandit/engagesphere-dashboard/internal/db"
	"github.com/unclebandit/engagesphere-dashboard/internal/model"
	"github.com/unclebandit/engagesphere-dashboard/internal/repository"
)

type seedCampaign struct {
	campaign model.Campaign
	sent     int
	failed   int
	pending  int
}

var seeds = []seedCampaign{
	{
		campaign: model.Campaign{
			Name:         "Spring Sale",
			Status:       model.StatusSent,
			Message:      "Spring is here! Take 20% off everything this week.",
			SegmentName:  "Nairobi Shoppers",
			Rules:        []model.SegmentRule{{Field: "location", Operator: model.OpEquals, Value: "Nairobi"}},
			RuleLogic:    model.RuleLogicAnd,
			AudienceSize: 40,
		},
		sent:   30,
		failed: 6,
	},
	{
		campaign: model.Campaign{
			Name:    "Win-back",
			Status:  model.StatusFailed,
			Message: "We miss you. Here is a voucher for your next order.",
			Rules: []model.SegmentRule{
				{Field: "last_order_days", Operator: model.OpGreaterOrEq, Value: "90"},
				{Field: "email", Operator: model.OpEndsWith, Value: "@example.com"},
			},
			RuleLogic:    model.RuleLogicOr,
			AudienceSize: 12,
		},
		sent:   2,
		failed: 10,
	},
	{
		campaign: model.Campaign{
			Name:         "New Arrivals",
			Status:       model.StatusScheduled,
			Message:      "Fresh styles just landed.",
			Rules:        []model.SegmentRule{{Field: "preferred_product", Operator: model.OpContains, Value: "Shoes"}},
			RuleLogic:    model.RuleLogicAnd,
			AudienceSize: 25,
		},
		pending: 25,
	},
	{
		campaign: model.Campaign{
			Name:    "Loyalty Draft",
			Status:  model.StatusDraft,
			Message: "Thanks for being with us.",
		},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DB, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		log.Fatal(err)
	}

	campaigns := &repository.CampaignRepository{DB: conn}
	deliveries := &repository.DeliveryRepository{DB: conn}

	for _, s := range seeds {
		c := s.campaign
		if err := campaigns.Create(ctx, &c); err != nil {
			log.Fatalf("failed to seed %q: %v", c.Name, err)
		}

		if err := seedDeliveries(ctx, deliveries, c.ID, s); err != nil {
			log.Fatalf("failed to seed deliveries for %q: %v", c.Name, err)
		}

		fmt.Printf("Seeded: %s (%s)\n", c.Name, c.ID)
	}

	fmt.Println("Database seeding completed successfully!")
}

type deliveryStore interface {
	Create(ctx context.Context, d *model.Delivery) error
	UpdateStatus(ctx context.Context, id int, status model.DeliveryStatus, lastError string) error
}

// seedDeliveries queues a pending delivery per recipient and then settles the
// sent and failed ones, the same path a real send takes.
func seedDeliveries(ctx context.Context, store deliveryStore, campaignID string, s seedCampaign) error {
	n := 0
	settle := func(count int, status model.DeliveryStatus, lastError string) error {
		for i := 0; i < count; i++ {
			n++
			d := &model.Delivery{
				CampaignID: campaignID,
				Recipient:  fmt.Sprintf("+2547%08d", n),
				Status:     model.DeliveryPending,
			}
			if err := store.Create(ctx, d); err != nil {
				return err
			}
			if status == model.DeliveryPending {
				continue
			}
			if err := store.UpdateStatus(ctx, d.ID, status, lastError); err != nil {
				return err
			}
		}
		return nil
	}
	if err := settle(s.sent, model.DeliverySent, ""); err != nil {
		return err
	}
	if err := settle(s.failed, model.DeliveryFailed, "mock send failed"); err != nil {
		return err
	}
	return settle(s.pending, model.DeliveryPending, "")
}
