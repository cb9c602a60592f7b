package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/bookvalue/internal/resilience"
)

// Opener opens record sources given as local paths or http(s) URLs.
type Opener struct {
	client  *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewOpener creates an Opener. Remote fetches are paced to one per second
// and retried on transient failures.
func NewOpener(timeout time.Duration) *Opener {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Opener{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
		retry:   resilience.DefaultRetryConfig(),
	}
}

// IsRemote reports whether src is an http(s) URL.
func IsRemote(src string) bool {
	u, err := url.Parse(src)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Open returns a reader over src. The caller closes it.
func (o *Opener) Open(ctx context.Context, src string) (io.ReadCloser, error) {
	if strings.TrimSpace(src) == "" {
		return nil, eris.New("fetcher: empty source")
	}
	if !IsRemote(src) {
		f, err := os.Open(src)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", src)
		}
		return f, nil
	}

	retry := o.retry
	retry.OnRetry = func(attempt int, err error) {
		zap.L().Warn("fetcher: retrying download",
			zap.String("url", src),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return resilience.DoVal(ctx, retry, func(ctx context.Context) (io.ReadCloser, error) {
		return o.get(ctx, src)
	})
}

func (o *Opener) get(ctx context.Context, src string) (io.ReadCloser, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetcher: rate limit wait")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: build request %s", src)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: get %s", src)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close() //nolint:errcheck
		statusErr := eris.Errorf("fetcher: get %s: status %d", src, resp.StatusCode)
		return nil, resilience.FromStatus(statusErr, resp.StatusCode)
	}
	return resp.Body, nil
}
