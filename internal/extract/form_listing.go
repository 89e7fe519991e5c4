package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/repository"
)

const defaultItemSelector = "li"

// formListing pages through a listing endpoint that takes form parameters
// and answers with an HTML fragment, one element per product.
type formListing struct {
	src  entity.SourceConfig
	deps Deps
}

func (e *formListing) Extract(ctx context.Context, emit repository.EmitFunc) error {
	itemSel := e.src.ItemSelector
	if itemSel == "" {
		itemSel = defaultItemSelector
	}
	start := e.src.StartPage
	if start <= 0 {
		start = 1
	}

	for _, u := range e.src.URLs {
		base, _ := url.Parse(u)
		for page := start; ; page++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if e.src.MaxPages > 0 && page-start >= e.src.MaxPages {
				break
			}

			doc, err := e.fetchPage(ctx, u, page)
			if err != nil {
				return err
			}
			items := doc.Find(itemSel)
			e.deps.Logger.Info("fetched listing page",
				zap.String("url", u), zap.Int("page", page), zap.Int("items", items.Length()))
			if items.Length() == 0 {
				break
			}

			var emitErr error
			items.EachWithBreak(func(_ int, item *goquery.Selection) bool {
				emitErr = emit(ctx, recordFromSelection(item, e.src, base, ""))
				return emitErr == nil
			})
			if emitErr != nil {
				return emitErr
			}

			if e.src.PageParam == "" {
				break
			}
		}
	}
	return nil
}

func (e *formListing) fetchPage(ctx context.Context, u string, page int) (*goquery.Document, error) {
	form := make(map[string]string, len(e.src.Form)+1)
	for k, v := range e.src.Form {
		form[k] = v
	}
	if e.src.PageParam != "" {
		form[e.src.PageParam] = strconv.Itoa(page)
	}
	method := e.src.Method
	if method == "" {
		method = http.MethodPost
	}

	body, err := e.deps.Fetcher.Fetch(ctx, entity.FetchRequest{
		Method:  method,
		URL:     u,
		Query:   e.src.Query,
		Form:    form,
		Headers: e.src.Headers,
	})
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %d of %s: %w", page, u, err)
	}
	return doc, nil
}
