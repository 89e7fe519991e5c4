// Package extract holds the configuration-driven extractors that turn
// manufacturer listing endpoints and spec pages into flat records.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/repository"
	"github.com/user/equipment-scraper/pkg/utils"
)

var (
	// ErrUnknownSource is returned for a source kind with no extractor.
	ErrUnknownSource = errors.New("unknown source kind")
	// ErrInvalidSource is returned for a source missing required settings.
	ErrInvalidSource = errors.New("invalid source configuration")
)

// Deps are the collaborators extractors fetch pages through. Renderer may be
// nil when no source sets render.
type Deps struct {
	Fetcher  repository.PageFetcher
	Renderer repository.PageRenderer
	Logger   *zap.Logger
	// Settle is the pause after expanding sections of a rendered page.
	Settle time.Duration
}

// New builds the extractor for src.
func New(src entity.SourceConfig, deps Deps) (repository.Extractor, error) {
	if len(src.URLs) == 0 {
		return nil, fmt.Errorf("%w: no urls", ErrInvalidSource)
	}
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("%w: no fetcher", ErrInvalidSource)
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	switch src.Kind {
	case entity.SourceJSON:
		return &jsonListing{src: src, deps: deps}, nil
	case entity.SourceHTML:
		if src.Render && deps.Renderer == nil {
			return nil, fmt.Errorf("%w: render requested without a renderer", ErrInvalidSource)
		}
		return &htmlPage{src: src, deps: deps}, nil
	case entity.SourceForm:
		return &formListing{src: src, deps: deps}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSource, src.Kind)
}

// cleanText collapses runs of whitespace and trims the result.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func applyStatic(rec *entity.Record, static []entity.FieldSelector) {
	for _, f := range static {
		rec.Set(f.Name, f.Value)
	}
}

func withPrefix(prefix string, v *string) *string {
	if v == nil || prefix == "" || *v == "" {
		return v
	}
	s := prefix + *v
	return &s
}

// lookupPath walks a decoded JSON value along a dot path. Numeric segments
// index arrays. An empty path returns v itself.
func lookupPath(v any, path string) (any, bool) {
	if path == "" {
		return v, true
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// stringify renders a decoded JSON value as a column value. Arrays collapse
// to their first element; objects are re-encoded as JSON.
func stringify(v any) *string {
	var s string
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		s = strings.TrimSpace(val)
	case json.Number:
		s = val.String()
	case bool:
		s = strconv.FormatBool(val)
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		if len(val) == 0 {
			return nil
		}
		return stringify(val[0])
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return nil
		}
		s = string(b)
	}
	return &s
}

// selectValue reads a selector relative to sel. An empty selector reads sel
// itself. href and src attributes are resolved against base.
func selectValue(sel *goquery.Selection, f entity.FieldSelector, base *url.URL) *string {
	target := sel
	if f.Selector != "" {
		target = sel.Find(f.Selector).First()
	}
	if target.Length() == 0 {
		return nil
	}

	var v string
	if f.Attr != "" {
		attr, ok := target.Attr(f.Attr)
		if !ok {
			return nil
		}
		v = strings.TrimSpace(attr)
		if (f.Attr == "href" || f.Attr == "src") && base != nil && v != "" && f.Prefix == "" {
			if abs, err := utils.ToAbsoluteURL(base, v); err == nil {
				v = abs
			}
		}
	} else {
		v = cleanText(target.Text())
	}
	return withPrefix(f.Prefix, &v)
}

// specPairs reads label/value pairs from the rows under sel. A row without a
// label element falls back to its first two cells; with no label selector
// the label is the row text minus the value text.
func specPairs(sel *goquery.Selection, spec entity.SpecsConfig, defaultRow string) [][2]string {
	rowSel := spec.RowSelector
	if rowSel == "" {
		rowSel = defaultRow
	}
	if rowSel == "" {
		return nil
	}
	valueSel := spec.ValueSelector
	if valueSel == "" {
		valueSel = "td"
	}

	var pairs [][2]string
	sel.Find(rowSel).Each(func(_ int, row *goquery.Selection) {
		valueNode := row.Find(valueSel).First()
		value := cleanText(valueNode.Text())

		var label string
		switch {
		case spec.LabelSelector != "":
			label = cleanText(row.Find(spec.LabelSelector).First().Text())
		case row.Find("th").Length() > 0:
			label = cleanText(row.Find("th").First().Text())
		default:
			cells := row.Find("td")
			if cells.Length() >= 2 && spec.ValueSelector == "" {
				label = cleanText(cells.Eq(0).Text())
				value = cleanText(cells.Eq(1).Text())
			} else {
				label = cleanText(strings.Replace(row.Text(), valueNode.Text(), "", 1))
			}
		}
		if label == "" {
			return
		}
		pairs = append(pairs, [2]string{label, value})
	})
	return pairs
}

// recordFromSelection builds one record from an HTML element: static fields,
// then field selectors, then spec pairs, in that order.
func recordFromSelection(sel *goquery.Selection, src entity.SourceConfig, base *url.URL, defaultRow string) *entity.Record {
	rec := entity.NewRecord()
	applyStatic(rec, src.Static)
	for _, f := range src.Fields {
		rec.SetPtr(f.Name, selectValue(sel, f, base))
	}
	for _, p := range specPairs(sel, src.Specs, defaultRow) {
		rec.Set(p[0], p[1])
	}
	return rec
}
