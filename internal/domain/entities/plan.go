package entities

import (
	"errors"
	"fmt"
)

var ErrInvalidPlan = errors.New("invalid selection plan")

// Quota is the share of an exam reserved for one classification.
type Quota struct {
	Classification string
	Percent        int
}

// SelectionPlan lists classification quotas in the order they are sampled.
type SelectionPlan []Quota

// Validate checks that quotas are non-negative, unique and sum to 100.
func (p SelectionPlan) Validate() error {
	seen := make(map[string]struct{}, len(p))
	total := 0
	for _, q := range p {
		if q.Classification == "" {
			return fmt.Errorf("%w: empty classification", ErrInvalidPlan)
		}
		if _, ok := seen[q.Classification]; ok {
			return fmt.Errorf("%w: duplicate classification %q", ErrInvalidPlan, q.Classification)
		}
		seen[q.Classification] = struct{}{}
		if q.Percent < 0 {
			return fmt.Errorf("%w: negative percent for %q", ErrInvalidPlan, q.Classification)
		}
		total += q.Percent
	}
	if total != 100 {
		return fmt.Errorf("%w: percentages sum to %d, want 100", ErrInvalidPlan, total)
	}
	return nil
}

// Target returns floor(total * percent / 100).
func (q Quota) Target(total int) int {
	if total <= 0 || q.Percent <= 0 {
		return 0
	}
	return total * q.Percent / 100
}

// Backfill is the number of image swaps wanted for one classification.
type Backfill struct {
	Classification string
	Count          int
}

// BackfillPlan lists image swap targets per classification.
type BackfillPlan []Backfill
