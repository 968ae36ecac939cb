package credit

import "context"

// Service runs the full scoring pipeline: collect metrics, score them.
type Service struct {
	collector *Collector
}

// NewService constructs the scoring pipeline.
func NewService(collector *Collector) *Service {
	return &Service{collector: collector}
}

// Score collects on-chain metrics for address and returns the assessment.
// Collection degrades to defaults rather than failing, so the only error
// source is context cancellation surfaced by the data source.
func (s *Service) Score(ctx context.Context, address string, requestedAmount float64, _ int) (Assessment, error) {
	if err := ctx.Err(); err != nil {
		return Assessment{}, err
	}
	metrics := s.collector.Collect(ctx, address)
	return Score(metrics, requestedAmount), nil
}
