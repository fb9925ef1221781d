package rewards

import (
	"errors"
	"fmt"
	"math"

	"remat-backend/internal/models"
)

var ErrInvalidConfidence = errors.New("confidence must be within [0, 1]")

// floatSlack absorbs binary rounding noise so that e.g. 110*0.6 floors to 66
const floatSlack = 1e-9

// Calculator turns a classification result into awarded points.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	policy Policy
}

// NewCalculator creates a calculator for the given policy
func NewCalculator(policy Policy) *Calculator {
	return &Calculator{policy: policy}
}

// Policy returns the policy the calculator was built with
func (c *Calculator) Policy() Policy {
	return c.policy
}

// CalculatePoints applies the confidence tiers in precedence order:
//  1. override or confidence below the manual threshold: the manual cap
//  2. confidence at or above the high threshold: floor(base * confidence)
//  3. otherwise: floor(base * medium multiplier)
//
// Unknown waste types fall back to the default entry.
func (c *Calculator) CalculatePoints(wasteType models.WasteType, confidence float64, userOverride bool) (int, error) {
	if err := ValidateConfidence(confidence); err != nil {
		return 0, err
	}

	entry := c.policy.EntryFor(wasteType)
	t := c.policy.Thresholds

	switch {
	case userOverride || confidence < t.ManualBelow:
		return entry.ManualCap, nil
	case confidence >= t.HighFrom:
		return floorPoints(float64(entry.BasePoints) * confidence), nil
	default:
		return floorPoints(float64(entry.BasePoints) * t.MediumMultiplier), nil
	}
}

// Preview computes the detect-waste response shown before a deposit
func (c *Calculator) Preview(result models.ClassificationResult) (*models.DetectionResponse, error) {
	points, err := c.CalculatePoints(result.WasteType, result.Confidence, false)
	if err != nil {
		return nil, err
	}

	entry := c.policy.EntryFor(result.WasteType)
	return &models.DetectionResponse{
		WasteType:     result.WasteType,
		Confidence:    result.Confidence,
		BasePoints:    entry.BasePoints,
		ManualPoints:  entry.ManualCap,
		PointsToEarn:  points,
		LowConfidence: result.Confidence < c.policy.Thresholds.ManualBelow,
	}, nil
}

// ValidateConfidence rejects NaN and values outside [0, 1]. Values are never clamped.
func ValidateConfidence(confidence float64) error {
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidConfidence, confidence)
	}
	return nil
}

func floorPoints(v float64) int {
	return int(math.Floor(v + floatSlack))
}
