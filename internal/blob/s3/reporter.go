package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/updownlabs/updown/internal/domain"
)

// SettlementReport is the archived snapshot of a market at resolution time:
// the final prices, the frozen stake totals, and every position. Winners may
// still be unclaimed when the report is written; the report captures the
// settlement inputs, not the claim history.
type SettlementReport struct {
	Market     domain.Market     `json:"market"`
	Winning    domain.Side       `json:"winning_side"`
	Positions  []domain.Position `json:"positions"`
	ArchivedAt time.Time         `json:"archived_at"`
}

// Reporter writes one JSON settlement report per resolved market.
type Reporter struct {
	client *Client
}

// NewReporter creates a Reporter uploading to the client's bucket.
func NewReporter(client *Client) *Reporter {
	return &Reporter{client: client}
}

// reportKey places reports under settlements/, partitioned by resolution day.
func reportKey(m domain.Market) string {
	day := time.Now().UTC().Format("2006-01-02")
	if m.ResolvedAt != nil {
		day = m.ResolvedAt.UTC().Format("2006-01-02")
	}
	return fmt.Sprintf("settlements/%s/market-%d.json", day, m.ID)
}

// Archive uploads the settlement report for a resolved market.
func (r *Reporter) Archive(ctx context.Context, m domain.Market, positions []domain.Position) error {
	report := SettlementReport{
		Market:     m,
		Winning:    m.WinningSide(),
		Positions:  positions,
		ArchivedAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("s3blob: marshal report for market %d: %w", m.ID, err)
	}

	key := reportKey(m)
	_, err = r.client.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.client.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3blob: put report %s: %w", key, err)
	}
	return nil
}
