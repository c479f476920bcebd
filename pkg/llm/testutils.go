package llm

import "context"

// ScriptedProvider returns canned responses in order. Used by tests across
// packages to stand in for the completion service.
type ScriptedProvider struct {
	Responses []string
	Err       error
	Requests  []ChatRequest // every request received, in order
	calls     int
}

// Name implements Provider.
func (p *ScriptedProvider) Name() string {
	return "scripted"
}

// Chat implements Provider. When Err is set it is returned for every call.
// Otherwise responses are served in order, repeating the last one once the
// script is exhausted.
func (p *ScriptedProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	p.Requests = append(p.Requests, req)
	if p.Err != nil {
		return nil, p.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx := p.calls
	if idx >= len(p.Responses) {
		idx = len(p.Responses) - 1
	}
	p.calls++

	return &ChatResponse{Content: p.Responses[idx], Model: "scripted"}, nil
}

// Calls returns how many requests the provider has served.
func (p *ScriptedProvider) Calls() int {
	return p.calls
}
