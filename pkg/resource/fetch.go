package resource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/zurustar/mewlix-graphic/pkg/fileutil"
)

// Fetcher はパスからリソースのバイト列を取得する
type Fetcher interface {
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// FSFetcher は FileSystem からリソースを読み込む
type FSFetcher struct {
	fs fileutil.FileSystem
}

// NewFSFetcher は FileSystem を使う Fetcher を作成する
func NewFSFetcher(fs fileutil.FileSystem) *FSFetcher {
	return &FSFetcher{fs: fs}
}

func (f *FSFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.fs.ReadFile(path)
}

// HTTPFetcher は HTTP(S) でリソースを取得する
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher は HTTPFetcher を作成する。client が nil の場合は http.DefaultClient を使う
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// MultiFetcher は URL スキームに応じて Fetcher を切り替える
// http:// と https:// は Remote、それ以外は Local で取得する
type MultiFetcher struct {
	Local  Fetcher
	Remote Fetcher
}

func (f *MultiFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if isRemote(path) {
		if f.Remote == nil {
			return nil, fmt.Errorf("remote fetching is not configured: %s", path)
		}
		return f.Remote.Fetch(ctx, path)
	}
	return f.Local.Fetch(ctx, path)
}

func isRemote(path string) bool {
	u, err := url.Parse(path)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
