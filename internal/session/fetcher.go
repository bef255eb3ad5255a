package session

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dgallion1/pdfdancer/internal/decode"
	"github.com/dgallion1/pdfdancer/internal/model"
	"github.com/dgallion1/pdfdancer/internal/transport"
)

// httpFetcher loads snapshots for the cache. Page indexes are 0-based here
// and 1-based on the wire.
type httpFetcher struct {
	client    *transport.Client
	sessionID string
}

func (f *httpFetcher) get(ctx context.Context, path, types string) ([]byte, error) {
	if t := strings.TrimSpace(types); t != "" {
		path += "?types=" + url.QueryEscape(types)
	}
	return f.client.Get(ctx, path, f.sessionID)
}

func (f *httpFetcher) FetchDocument(ctx context.Context, types string) (*model.DocumentSnapshot, error) {
	body, err := f.get(ctx, "/pdf/document/snapshot", types)
	if err != nil {
		return nil, fmt.Errorf("fetch document snapshot: %w", err)
	}
	return decode.Document(body)
}

func (f *httpFetcher) FetchPage(ctx context.Context, pageIndex int, types string) (*model.PageSnapshot, error) {
	body, err := f.get(ctx, pagePath(pageIndex), types)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d snapshot: %w", pageIndex+1, err)
	}
	return decode.Page(body)
}

func (f *httpFetcher) FetchTypedDocument(ctx context.Context, v model.Variant, types string) (*model.TypedDocumentSnapshot, error) {
	body, err := f.get(ctx, "/pdf/document/snapshot", types)
	if err != nil {
		return nil, fmt.Errorf("fetch document snapshot: %w", err)
	}
	return decode.TypedDocument(body, v)
}

func (f *httpFetcher) FetchTypedPage(ctx context.Context, pageIndex int, v model.Variant, types string) (*model.TypedPageSnapshot, error) {
	body, err := f.get(ctx, pagePath(pageIndex), types)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d snapshot: %w", pageIndex+1, err)
	}
	return decode.TypedPage(body, v)
}

func pagePath(pageIndex int) string {
	return fmt.Sprintf("/pdf/page/%d/snapshot", pageIndex+1)
}
