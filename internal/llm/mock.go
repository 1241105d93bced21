package llm

import "context"

// MockClient is a test double for the Client interface. It can also be
// used for dry-run mode.
type MockClient struct {
	Response *Response
	Err      error
	Systems  []string    // records system prompts sent
	Windows  [][]Message // records conversation windows sent
}

// Complete records the call and returns the mock response.
func (m *MockClient) Complete(ctx context.Context, system string, window []Message) (*Response, error) {
	m.Systems = append(m.Systems, system)
	m.Windows = append(m.Windows, window)
	return m.Response, m.Err
}
