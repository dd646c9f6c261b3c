package image

import "context"

// Asset is the normalized result of an image generation call.
type Asset struct {
	Data   []byte
	URL    string
	Format string
}

// Request captures the inputs for one image generation.
type Request struct {
	Prompt        string
	Size          string
	ReferenceNote string
	RequestID     string
}

// Generator abstracts an image backend so callers can swap providers or
// inject fakes in tests.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Asset, error)
}
