package llm

import "context"

// MockClient is a test double for the Client interface.
// It can also be used for dry-run mode.
type MockClient struct {
	Valuation *Valuation
	Degraded  *Degraded
	Err       error

	AnalyzeCalls []AnalyzeRequest // records requests received
	DegradeCalls []DegradeRequest
}

// Analyze records the call and returns the mock valuation.
func (m *MockClient) Analyze(ctx context.Context, req AnalyzeRequest) (*Valuation, error) {
	m.AnalyzeCalls = append(m.AnalyzeCalls, req)
	return m.Valuation, m.Err
}

// Degrade records the call and returns the mock degraded content.
func (m *MockClient) Degrade(ctx context.Context, req DegradeRequest) (*Degraded, error) {
	m.DegradeCalls = append(m.DegradeCalls, req)
	return m.Degraded, m.Err
}
