package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/repository"
)

const defaultSpecRow = "table tbody tr"

// htmlPage turns every configured product page into one record. Pages that
// build their spec tables with JavaScript are rendered in a browser.
type htmlPage struct {
	src  entity.SourceConfig
	deps Deps
}

func (e *htmlPage) Extract(ctx context.Context, emit repository.EmitFunc) error {
	for _, u := range e.src.URLs {
		if err := ctx.Err(); err != nil {
			return err
		}
		html, err := e.load(ctx, u)
		if err != nil {
			return err
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", u, err)
		}
		base, _ := url.Parse(u)

		rec := recordFromSelection(doc.Selection, e.src, base, defaultSpecRow)
		if e.src.SourceURLField != "" {
			rec.Set(e.src.SourceURLField, u)
		}
		e.deps.Logger.Info("extracted page", zap.String("url", u), zap.Int("fields", rec.Len()))

		if err := emit(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (e *htmlPage) load(ctx context.Context, u string) (string, error) {
	if e.src.Render {
		return e.deps.Renderer.Render(ctx, u, entity.RenderOptions{
			WaitSelector:   e.src.WaitSelector,
			ExpandSelector: e.src.ExpandSelector,
			Settle:         e.deps.Settle,
		})
	}
	body, err := e.deps.Fetcher.Fetch(ctx, entity.FetchRequest{
		Method:  e.src.Method,
		URL:     u,
		Query:   e.src.Query,
		Headers: e.src.Headers,
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}
