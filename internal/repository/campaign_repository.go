package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/engagesphere-dashboard/internal/errors"
	"github.com/unclebandit/engagesphere-dashboard/internal/model"
)

// ListFilter narrows and pages a campaign listing. A zero Limit returns every row.
type ListFilter struct {
	Status model.Status
	Offset int
	Limit  int
}

type CampaignRepositoryInterface interface {
	Create(ctx context.Context, c *model.Campaign) error
	Update(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	List(ctx context.Context, f ListFilter) ([]model.Campaign, int, error)
	Delete(ctx context.Context, id string) error
}

type CampaignRepository struct {
	DB *sql.DB
}

// sent and failed counts are derived from deliveries rather than stored.
const selectCampaign = `
    SELECT c.id, c.name, c.status, c.message, c.segment_name, c.rules, c.rule_logic,
           c.audience_size, COALESCE(d.sent, 0), COALESCE(d.failed, 0), c.created_at, c.updated_at
    FROM campaigns c
    LEFT JOIN (
        SELECT campaign_id,
               COUNT(*) FILTER (WHERE status = 'sent')   AS sent,
               COUNT(*) FILTER (WHERE status = 'failed') AS failed
        FROM deliveries
        GROUP BY campaign_id
    ) d ON d.campaign_id = c.id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*model.Campaign, error) {
	var (
		c         model.Campaign
		rules     []byte
		updatedAt sql.NullTime
	)
	err := row.Scan(&c.ID, &c.Name, &c.Status, &c.Message, &c.SegmentName, &rules, &c.RuleLogic,
		&c.AudienceSize, &c.SentCount, &c.FailedCount, &c.CreatedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rules, &c.Rules); err != nil {
		return nil, fmt.Errorf("decode rules of campaign %s: %w", c.ID, err)
	}
	if c.Rules == nil {
		c.Rules = []model.SegmentRule{}
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		c.UpdatedAt = &t
	}
	return &c, nil
}

// prepare fills defaults and rule ids before a write.
func prepare(c *model.Campaign) ([]byte, error) {
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	if c.RuleLogic == "" {
		c.RuleLogic = model.RuleLogicAnd
	}
	if c.Rules == nil {
		c.Rules = []model.SegmentRule{}
	}
	for i := range c.Rules {
		if c.Rules[i].ID == "" {
			c.Rules[i].ID = uuid.NewString()
		}
	}
	return json.Marshal(c.Rules)
}

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	rules, err := prepare(c)
	if err != nil {
		return err
	}
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO campaigns (id, name, status, message, segment_name, rules, rule_logic, audience_size, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err = r.DB.ExecContext(ctx, query, c.ID, c.Name, c.Status, c.Message, c.SegmentName, rules, c.RuleLogic, c.AudienceSize, c.CreatedAt)
	return err
}

func (r *CampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
	rules, err := prepare(c)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	query := `
        UPDATE campaigns
        SET name=$1, status=$2, message=$3, segment_name=$4, rules=$5, rule_logic=$6, audience_size=$7, updated_at=$8
        WHERE id=$9
    `
	res, err := r.DB.ExecContext(ctx, query, c.Name, c.Status, c.Message, c.SegmentName, rules, c.RuleLogic, c.AudienceSize, now, c.ID)
	if err != nil {
		return err
	}
	if err := requireRow(res, c.ID); err != nil {
		return err
	}
	c.UpdatedAt = &now
	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, selectCampaign+` WHERE c.id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) List(ctx context.Context, f ListFilter) ([]model.Campaign, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND c.status=$%d", len(args))
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns c`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := selectCampaign + where + ` ORDER BY c.created_at DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	campaigns := []model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return campaigns, total, nil
}

// Delete removes a campaign and, by cascade, its deliveries.
func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
