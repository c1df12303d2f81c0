package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nmarks/payflow/internal/domain"
)

// Risk factor weights. Additive, clamped to [0,100]; a score strictly above
// ReviewThreshold flags the payment for manual review.
const (
	weightLargeAmount     = 25
	weightVeryLargeAmount = 25
	weightHighVelocity    = 25
	weightExternalPayee   = 15

	ReviewThreshold = 50
	maxRiskScore    = 100

	veryLargeMultiplier = 10
)

// RiskConfig holds the scorer's thresholds.
type RiskConfig struct {
	LargeAmountThreshold decimal.Decimal
	VelocityLimit        int64
	VelocityWindow       time.Duration
}

// ActivityCounter reads recent ledger activity for an account.
type ActivityCounter interface {
	RecentActivityCount(ctx context.Context, accountID string, window time.Duration) (int64, error)
}

// RiskScorer scores a proposed payment against recent ledger activity. The
// contract is deterministic given the same inputs, not exhaustive fraud
// coverage.
type RiskScorer struct {
	cfg      RiskConfig
	activity ActivityCounter
}

// NewRiskScorer creates a new RiskScorer.
func NewRiskScorer(cfg RiskConfig, activity ActivityCounter) *RiskScorer {
	if cfg.VelocityWindow == 0 {
		cfg.VelocityWindow = time.Hour
	}
	return &RiskScorer{cfg: cfg, activity: activity}
}

// RiskAssessment is the outcome of scoring one proposed payment.
type RiskAssessment struct {
	Score          int
	RequiresReview bool
}

// Score assesses a proposed payment.
func (s *RiskScorer) Score(ctx context.Context, payment *domain.Payment) (RiskAssessment, error) {
	score := 0

	if payment.Amount.GreaterThan(s.cfg.LargeAmountThreshold) {
		score += weightLargeAmount
	}

	if payment.Amount.GreaterThan(s.cfg.LargeAmountThreshold.Mul(decimal.NewFromInt(veryLargeMultiplier))) {
		score += weightVeryLargeAmount
	}

	count, err := s.activity.RecentActivityCount(ctx, payment.SourceAccountID, s.cfg.VelocityWindow)
	if err != nil {
		return RiskAssessment{}, err
	}
	if count > s.cfg.VelocityLimit {
		score += weightHighVelocity
	}

	if payment.ExternalPayee != nil {
		score += weightExternalPayee
	}

	if score > maxRiskScore {
		score = maxRiskScore
	}

	return RiskAssessment{
		Score:          score,
		RequiresReview: score > ReviewThreshold,
	}, nil
}
