package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/repository"
)

// jsonListing reads product listing endpoints that answer with JSON, such
// as AEM "productlisting.json" or model catalog APIs.
type jsonListing struct {
	src  entity.SourceConfig
	deps Deps
}

func (e *jsonListing) Extract(ctx context.Context, emit repository.EmitFunc) error {
	for _, u := range e.src.URLs {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := e.deps.Fetcher.Fetch(ctx, entity.FetchRequest{
			Method:  e.src.Method,
			URL:     u,
			Query:   e.src.Query,
			Headers: e.src.Headers,
		})
		if err != nil {
			return err
		}
		items, err := e.items(body)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", u, err)
		}
		e.deps.Logger.Info("fetched listing", zap.String("url", u), zap.Int("items", len(items)))

		for _, item := range items {
			if err := emit(ctx, e.record(item)); err != nil {
				return err
			}
		}
	}
	return nil
}

// items decodes body and returns the array at items_path. A single object
// at that path is treated as a one-item listing.
func (e *jsonListing) items(body []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}
	node, ok := lookupPath(root, e.src.ItemsPath)
	if !ok {
		return nil, fmt.Errorf("%w: items path %q not found", ErrInvalidSource, e.src.ItemsPath)
	}
	switch v := node.(type) {
	case []any:
		return v, nil
	case map[string]any:
		return []any{v}, nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: items path %q is not an array", ErrInvalidSource, e.src.ItemsPath)
}

func (e *jsonListing) record(item any) *entity.Record {
	rec := entity.NewRecord()
	applyStatic(rec, e.src.Static)

	for _, f := range e.src.Fields {
		v, ok := lookupPath(item, f.Path)
		if !ok {
			continue
		}
		rec.SetPtr(f.Name, withPrefix(f.Prefix, stringify(v)))
	}

	spec := e.src.Specs
	if spec.Path == "" {
		return rec
	}
	list, _ := lookupPath(item, spec.Path)
	entries, _ := list.([]any)
	for _, entry := range entries {
		nameVal, _ := lookupPath(entry, spec.Name)
		name := stringify(nameVal)
		if name == nil || cleanText(*name) == "" {
			continue
		}
		raw, _ := lookupPath(entry, spec.Value)
		value := stringify(raw)
		if value != nil && spec.Unit != "" {
			if unitVal, ok := lookupPath(entry, spec.Unit); ok {
				if unit := stringify(unitVal); unit != nil && *unit != "" {
					v := *value + " " + *unit
					value = &v
				}
			}
		}
		rec.SetPtr(cleanText(*name), value)
	}
	return rec
}
