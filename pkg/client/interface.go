package client

import "context"

// VisionClient is a chat backend that can look at an image
type VisionClient interface {
	// SimpleQuery returns the model's free-form answer
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	// QueryJSON asks the backend to constrain the answer to a JSON object and
	// returns the raw content
	QueryJSON(ctx context.Context, model, prompt, imgB64 string) (string, error)
}
