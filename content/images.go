package content

import (
	"context"
	"fmt"
	"html"
	"mime"
	"net/url"
	"path"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ImagesDir is relative directory images are referenced from after
// materialization.
const ImagesDir = "images"

const maxImageNameLength = 100

// ImageArtifact is downloaded image.
type ImageArtifact struct {
	FileName    string `json:"file"`
	Data        []byte `json:"-"`
	ContentType string `json:"contentType"`
	OriginalURL string `json:"url"`
}

// ImageFetcher downloads image with session credentials.
type ImageFetcher interface {
	FetchImage(ctx context.Context, rawURL string) ([]byte, string, error)
}

// Materializer downloads images referenced from HTML and points references
// to local copies.
type Materializer struct {
	fetcher     ImageFetcher
	concurrency int
	now         func() time.Time
	log         *zap.Logger
}

func NewMaterializer(fetcher ImageFetcher, concurrency int, log *zap.Logger) *Materializer {
	return &Materializer{
		fetcher:     fetcher,
		concurrency: max(concurrency, 1),
		now:         time.Now,
		log:         log.Named("images"),
	}
}

// Materialize fetches every image, failed downloads are logged and skipped.
// Only cancellation is reported as error.
func (m *Materializer) Materialize(ctx context.Context, text string) (string, []ImageArtifact, error) {
	urls := ExtractImageURLs(text)
	if len(urls) == 0 {
		return text, nil, nil
	}

	type download struct {
		data        []byte
		contentType string
		ok          bool
	}
	downloads := make([]download, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			data, ct, err := m.fetcher.FetchImage(gctx, requestURL(u))
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				m.log.Warn("Unable to download image, skipping", zap.String("url", u), zap.Error(err))
				return nil
			}
			downloads[i] = download{data: data, contentType: ct, ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", nil, err
	}

	var (
		artifacts []ImageArtifact
		names     = newNameSet()
	)
	for i, u := range urls {
		d := downloads[i]
		if !d.ok {
			continue
		}
		name := names.unique(imageFileName(u, d.contentType, d.data, m.now()))
		artifacts = append(artifacts, ImageArtifact{FileName: name, Data: d.data, ContentType: d.contentType, OriginalURL: u})
		m.log.Debug("Image downloaded", zap.String("url", u), zap.String("file", name), zap.Int("size", len(d.data)))
	}

	return rewriteImageURLs(text, artifacts), artifacts, nil
}

// rewriteImageURLs replaces every occurrence of downloaded URLs with local
// path. Longer URLs go first so URL which is prefix of another one does not
// break it.
func rewriteImageURLs(text string, artifacts []ImageArtifact) string {
	sorted := slices.Clone(artifacts)
	slices.SortStableFunc(sorted, func(a, b ImageArtifact) int {
		return len(b.OriginalURL) - len(a.OriginalURL)
	})
	pairs := make([]string, 0, 2*len(sorted))
	for _, a := range sorted {
		pairs = append(pairs, a.OriginalURL, ImagesDir+"/"+a.FileName)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// requestURL undoes HTML attribute escaping, protocol relative references
// get https.
func requestURL(u string) string {
	u = html.UnescapeString(u)
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}
	return u
}

// imageFileName derives file name from the last path segment of the URL,
// synthetic name is used when segment is empty or too long.
func imageFileName(rawURL, contentType string, data []byte, now time.Time) string {
	name := lastSegment(rawURL)
	if len(name) == 0 || utf8.RuneCountInString(name) > maxImageNameLength {
		name = fmt.Sprintf("image_%d", now.UnixMilli())
	}
	if !strings.Contains(name, ".") {
		name += "." + imageExt(contentType, data)
	}
	return name
}

// lastSegment only looks at the path, host never becomes a file name.
func lastSegment(rawURL string) string {
	s := html.UnescapeString(rawURL)
	if u, err := url.Parse(s); err == nil {
		s = u.Path
	} else {
		if i := strings.IndexAny(s, "?#"); i >= 0 {
			s = s[:i]
		}
		if unescaped, err := url.PathUnescape(s); err == nil {
			s = unescaped
		}
	}
	if i := strings.LastIndexAny(s, "/\\"); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < ' ' || strings.ContainsRune(`<>:"/\|?*`, r) {
			return '_'
		}
		return r
	}, s))
}

// imageExt picks extension by declared content type, when type is missing or
// generic actual data is looked at.
func imageExt(contentType string, data []byte) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = ""
	}
	switch strings.ToLower(mt) {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "", "application/octet-stream", "binary/octet-stream":
		if kind, err := filetype.Image(data); err == nil && kind != filetype.Unknown && len(kind.Extension) > 0 {
			return kind.Extension
		}
	}
	return "jpg"
}

// nameSet hands out file names unique in case insensitive manner: a.png,
// a-1.png, a-2.png...
type nameSet map[string]bool

func newNameSet() nameSet {
	return make(nameSet)
}

func (ns nameSet) unique(name string) string {
	candidate := name
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ns[strings.ToLower(candidate)]; i++ {
		candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
	}
	ns[strings.ToLower(candidate)] = true
	return candidate
}
