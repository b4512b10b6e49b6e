package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RiskBoard handles the Redis ZSET ranking a clinician's assessments by latest probability
type RiskBoard interface {
	UpdateScore(ctx context.Context, clinicianID, assessmentID string, probability float64) error
	GetTop(ctx context.Context, clinicianID string, limit int) ([]RiskEntry, error)
}

// RiskEntry is one ranked assessment
type RiskEntry struct {
	AssessmentID string  `json:"assessmentId"`
	Probability  float64 `json:"probability"`
	Rank         int     `json:"rank"`
}

type riskBoard struct {
	client *redis.Client
}

// NewRiskBoard creates a new risk board
func NewRiskBoard(client *redis.Client) RiskBoard {
	return &riskBoard{
		client: client,
	}
}

func (c *riskBoard) key(clinicianID string) string {
	return fmt.Sprintf("clinician:%s:risk", clinicianID)
}

func (c *riskBoard) UpdateScore(ctx context.Context, clinicianID, assessmentID string, probability float64) error {
	return c.client.ZAdd(ctx, c.key(clinicianID), redis.Z{
		Score:  probability,
		Member: assessmentID,
	}).Err()
}

// GetTop returns the highest-risk assessments first; limit <= 0 returns all
func (c *riskBoard) GetTop(ctx context.Context, clinicianID string, limit int) ([]RiskEntry, error) {
	stop := int64(limit - 1)
	if limit <= 0 {
		stop = -1
	}
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(clinicianID), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]RiskEntry, len(results))
	for i, z := range results {
		entries[i] = RiskEntry{
			AssessmentID: z.Member.(string),
			Probability:  z.Score,
			Rank:         i + 1,
		}
	}
	return entries, nil
}
