package repository

import (
	"context"

	"github.com/user/equipment-scraper/internal/entity"
)

// EmitFunc receives one extracted record. Returning an error stops extraction.
type EmitFunc func(ctx context.Context, rec *entity.Record) error

// Extractor produces records for one dataset.
type Extractor interface {
	Extract(ctx context.Context, emit EmitFunc) error
}

// PageFetcher performs plain HTTP requests and returns the response body.
type PageFetcher interface {
	Fetch(ctx context.Context, req entity.FetchRequest) ([]byte, error)
}

// PageRenderer loads a page in a headless browser and returns its HTML.
type PageRenderer interface {
	Render(ctx context.Context, url string, opts entity.RenderOptions) (string, error)
}
