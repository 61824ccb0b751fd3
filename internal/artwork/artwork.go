// Package artwork downloads cover images.
package artwork

import (
	"context"
	"errors"
	"fmt"
	"time"

	"metafetch/internal/provider"

	"github.com/imroc/req/v3"
)

// maxImageSize rejects anything larger than a sane cover image.
const maxImageSize = 10 << 20

var errEmptyImage = errors.New("artwork download returned no data")

// Fetcher implements metadata.ArtFetcher.
type Fetcher struct {
	http *req.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{http: provider.NewClient("", 15*time.Second)}
}

// Fetch downloads the image at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download artwork: %w", err)
	}
	if resp.IsErrorState() {
		return nil, provider.NewHTTPError("artwork", resp)
	}

	data := resp.Bytes()
	switch {
	case len(data) == 0:
		return nil, errEmptyImage
	case len(data) > maxImageSize:
		return nil, fmt.Errorf("artwork too large: %d bytes", len(data))
	}
	return data, nil
}
