package extract

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/user/equipment-scraper/internal/entity"
)

// fakeFetcher answers by URL and, for form requests, by page parameter.
type fakeFetcher struct {
	pages    map[string]string
	requests []entity.FetchRequest
}

func (f *fakeFetcher) Fetch(_ context.Context, req entity.FetchRequest) ([]byte, error) {
	f.requests = append(f.requests, req)
	key := req.URL
	if p, ok := req.Form["nowPage"]; ok {
		key = fmt.Sprintf("%s#%s", req.URL, p)
	}
	body, ok := f.pages[key]
	if !ok {
		return nil, fmt.Errorf("unexpected request %s", key)
	}
	return []byte(body), nil
}

type fakeRenderer struct {
	html string
	opts entity.RenderOptions
}

func (r *fakeRenderer) Render(_ context.Context, _ string, opts entity.RenderOptions) (string, error) {
	r.opts = opts
	return r.html, nil
}

func collect(t *testing.T, src entity.SourceConfig, deps Deps) []*entity.Record {
	t.Helper()
	deps.Logger = zaptest.NewLogger(t)
	ex, err := New(src, deps)
	require.NoError(t, err)

	var recs []*entity.Record
	err = ex.Extract(context.Background(), func(_ context.Context, rec *entity.Record) error {
		recs = append(recs, rec)
		return nil
	})
	require.NoError(t, err)
	return recs
}

func value(t *testing.T, rec *entity.Record, name string) string {
	t.Helper()
	v, ok := rec.Get(name)
	require.True(t, ok, "field %q missing", name)
	require.NotNil(t, v, "field %q is null", name)
	return *v
}

func TestNewRejectsBadSources(t *testing.T) {
	fetcher := &fakeFetcher{}

	_, err := New(entity.SourceConfig{Kind: "xml", URLs: []string{"u"}}, Deps{Fetcher: fetcher})
	require.ErrorIs(t, err, ErrUnknownSource)

	_, err = New(entity.SourceConfig{Kind: entity.SourceJSON}, Deps{Fetcher: fetcher})
	require.ErrorIs(t, err, ErrInvalidSource)

	_, err = New(entity.SourceConfig{Kind: entity.SourceHTML, URLs: []string{"u"}, Render: true}, Deps{Fetcher: fetcher})
	require.ErrorIs(t, err, ErrInvalidSource)
}

const productListing = `[
  {
    "productModelName": "ZW180-7",
    "productDisplayName": "ZW180-7 Wheel Loader",
    "prodPagePath": "/us/en/products/wheel-loaders/zw180-7/",
    "prodFeatures": [
      {"featureTitle": "Operating Weight", "featureFinalValue": "33,290", "unit": "lb"},
      {"featureTitle": "Net Power", "featureFinalValue": 173, "unit": "hp"},
      {"featureTitle": "  ", "featureFinalValue": "ignored"}
    ]
  },
  {
    "productModelName": "ZW220-7",
    "prodFeatures": [
      {"featureTitle": "Bucket Capacity", "featureFinalValue": ["4.0", "4.5"], "unit": ""}
    ]
  }
]`

func TestJSONListing(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"https://cm.example/listing.json": productListing}}
	recs := collect(t, entity.SourceConfig{
		Kind: entity.SourceJSON,
		URLs: []string{"https://cm.example/listing.json"},
		Fields: []entity.FieldSelector{
			{Name: "model", Path: "productModelName"},
			{Name: "display_name", Path: "productDisplayName"},
			{Name: "product_page_url", Path: "prodPagePath", Prefix: "https://cm.example"},
		},
		Static: []entity.FieldSelector{{Name: "category", Value: "wheel_loaders"}},
		Specs:  entity.SpecsConfig{Path: "prodFeatures", Name: "featureTitle", Value: "featureFinalValue", Unit: "unit"},
	}, Deps{Fetcher: fetcher})

	require.Len(t, recs, 2)
	first := recs[0]
	require.Equal(t, []string{"category", "model", "display_name", "product_page_url", "Operating Weight", "Net Power"}, first.Names())
	require.Equal(t, "wheel_loaders", value(t, first, "category"))
	require.Equal(t, "ZW180-7", value(t, first, "model"))
	require.Equal(t, "https://cm.example/us/en/products/wheel-loaders/zw180-7/", value(t, first, "product_page_url"))
	require.Equal(t, "33,290 lb", value(t, first, "Operating Weight"))
	require.Equal(t, "173 hp", value(t, first, "Net Power"))

	second := recs[1]
	_, ok := second.Get("display_name")
	require.False(t, ok)
	require.Equal(t, "4.0", value(t, second, "Bucket Capacity"))
}

func TestJSONListingItemsPath(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://cat.example/models": `{"models":[{"model_name":"320","specs":[{"spec_name":"Engine Power","spec_value":["121 kW"]}]}]}`,
		"https://cat.example/bad":    `{"models":{"x":1}, "n": 3}`,
	}}
	recs := collect(t, entity.SourceConfig{
		Kind:      entity.SourceJSON,
		URLs:      []string{"https://cat.example/models"},
		ItemsPath: "models",
		Fields:    []entity.FieldSelector{{Name: "model", Path: "model_name"}},
		Specs:     entity.SpecsConfig{Path: "specs", Name: "spec_name", Value: "spec_value"},
	}, Deps{Fetcher: fetcher})
	require.Len(t, recs, 1)
	require.Equal(t, "121 kW", value(t, recs[0], "Engine Power"))

	ex, err := New(entity.SourceConfig{Kind: entity.SourceJSON, URLs: []string{"https://cat.example/bad"}, ItemsPath: "n"},
		Deps{Fetcher: fetcher, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	err = ex.Extract(context.Background(), func(context.Context, *entity.Record) error { return nil })
	require.ErrorIs(t, err, ErrInvalidSource)
}

func TestExtractStopsOnEmitError(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"https://cm.example/listing.json": productListing}}
	ex, err := New(entity.SourceConfig{
		Kind:   entity.SourceJSON,
		URLs:   []string{"https://cm.example/listing.json"},
		Fields: []entity.FieldSelector{{Name: "model", Path: "productModelName"}},
	}, Deps{Fetcher: fetcher, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	stop := errors.New("stop")
	calls := 0
	err = ex.Extract(context.Background(), func(context.Context, *entity.Record) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	require.Equal(t, 1, calls)
}

const specPage = `<html><head><title>DL250-7</title></head><body>
<h1 class="model"> DL250-7 </h1>
<img class="hero" src="/img/dl250.png">
<table class="specs"><tbody>
  <tr><th>Operating Weight</th><td>15,400 kg</td></tr>
  <tr><th>Bucket
      Capacity</th><td>2.7 m3</td></tr>
  <tr><td>Engine</td><td>Doosan DL06</td></tr>
  <tr><th></th><td>no label</td></tr>
</tbody></table>
</body></html>`

func TestHTMLPageFetched(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{"https://doosan.example/loaders/dl250": specPage}}
	recs := collect(t, entity.SourceConfig{
		Kind: entity.SourceHTML,
		URLs: []string{"https://doosan.example/loaders/dl250"},
		Fields: []entity.FieldSelector{
			{Name: "model", Selector: "h1.model"},
			{Name: "image_url", Selector: "img.hero", Attr: "src"},
			{Name: "brochure", Selector: "a.brochure", Attr: "href"},
		},
		Static:         []entity.FieldSelector{{Name: "category", Value: "wheel_loaders"}},
		SourceURLField: "source_url",
	}, Deps{Fetcher: fetcher})

	require.Len(t, recs, 1)
	rec := recs[0]
	require.Equal(t, "DL250-7", value(t, rec, "model"))
	require.Equal(t, "https://doosan.example/img/dl250.png", value(t, rec, "image_url"))
	v, ok := rec.Get("brochure")
	require.True(t, ok)
	require.Nil(t, v)
	require.Equal(t, "15,400 kg", value(t, rec, "Operating Weight"))
	require.Equal(t, "2.7 m3", value(t, rec, "Bucket Capacity"))
	require.Equal(t, "Doosan DL06", value(t, rec, "Engine"))
	require.Equal(t, "https://doosan.example/loaders/dl250", value(t, rec, "source_url"))
	require.Equal(t, 8, rec.Len())
}

func TestHTMLPageRendered(t *testing.T) {
	renderer := &fakeRenderer{html: specPage}
	recs := collect(t, entity.SourceConfig{
		Kind:           entity.SourceHTML,
		URLs:           []string{"https://doosan.example/loaders/dl250"},
		Render:         true,
		WaitSelector:   "table.specs",
		ExpandSelector: "button.expand",
		Fields:         []entity.FieldSelector{{Name: "model", Selector: "h1.model"}},
		Specs:          entity.SpecsConfig{RowSelector: "table.specs tr", LabelSelector: "th", ValueSelector: "td"},
	}, Deps{Fetcher: &fakeFetcher{}, Renderer: renderer})

	require.Len(t, recs, 1)
	require.Equal(t, "table.specs", renderer.opts.WaitSelector)
	require.Equal(t, "button.expand", renderer.opts.ExpandSelector)
	require.Equal(t, "15,400 kg", value(t, recs[0], "Operating Weight"))
	// an explicit label selector does not fall back to td cells
	_, ok := recs[0].Get("Engine")
	require.False(t, ok)
}

const listingPage1 = `<ul>
<li><div class="tit">ZE215E</div><div class="cat">Excavator</div>
  <div class="line01">Operating weight<span class="num01">21,500 kg</span></div>
  <div class="line01">Rated power<span class="num01">118 kW</span></div></li>
<li><div class="tit">ZE75E</div><div class="cat">Excavator</div>
  <div class="line01">Operating weight<span class="num01">7,300 kg</span></div></li>
</ul>`

const listingPage2 = `<ul>
<li><div class="tit">ZE950G</div><div class="cat">Excavator</div></li>
</ul>`

func TestFormListingPages(t *testing.T) {
	u := "https://zl.example/ext/ajax_proList.jsp"
	fetcher := &fakeFetcher{pages: map[string]string{
		u + "#1": listingPage1,
		u + "#2": listingPage2,
		u + "#3": `<ul></ul>`,
	}}
	recs := collect(t, entity.SourceConfig{
		Kind:      entity.SourceForm,
		URLs:      []string{u},
		Form:      map[string]string{"flag": "pro", "sCat": "57"},
		PageParam: "nowPage",
		Fields: []entity.FieldSelector{
			{Name: "model", Selector: "div.tit"},
			{Name: "category", Selector: "div.cat"},
		},
		Specs: entity.SpecsConfig{RowSelector: "div.line01", ValueSelector: "span.num01"},
	}, Deps{Fetcher: fetcher})

	require.Len(t, recs, 3)
	require.Equal(t, "ZE215E", value(t, recs[0], "model"))
	require.Equal(t, "21,500 kg", value(t, recs[0], "Operating weight"))
	require.Equal(t, "118 kW", value(t, recs[0], "Rated power"))
	require.Equal(t, "ZE950G", value(t, recs[2], "model"))

	require.Len(t, fetcher.requests, 3)
	require.Equal(t, "POST", fetcher.requests[0].Method)
	require.Equal(t, "57", fetcher.requests[1].Form["sCat"])
}

func TestFormListingMaxPages(t *testing.T) {
	u := "https://zl.example/ext/ajax_proList.jsp"
	fetcher := &fakeFetcher{pages: map[string]string{u + "#1": listingPage1}}
	recs := collect(t, entity.SourceConfig{
		Kind:      entity.SourceForm,
		URLs:      []string{u},
		PageParam: "nowPage",
		MaxPages:  1,
		Fields:    []entity.FieldSelector{{Name: "model", Selector: "div.tit"}},
	}, Deps{Fetcher: fetcher})
	require.Len(t, recs, 2)
	require.Len(t, fetcher.requests, 1)
}

func TestLookupPathAndStringify(t *testing.T) {
	doc := map[string]any{"a": []any{map[string]any{"b": "x"}}, "n": nil}
	v, ok := lookupPath(doc, "a.0.b")
	require.True(t, ok)
	require.Equal(t, "x", *stringify(v))

	_, ok = lookupPath(doc, "a.1.b")
	require.False(t, ok)

	v, ok = lookupPath(doc, "n")
	require.True(t, ok)
	require.Nil(t, stringify(v))

	require.Equal(t, "true", *stringify(true))
	require.Equal(t, "2.5", *stringify(2.5))
	require.Equal(t, `{"k":1}`, *stringify(map[string]any{"k": 1}))
	require.Nil(t, stringify([]any{}))
}
