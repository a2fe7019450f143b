// Package resource provides a caching asset provider over an fs.FS.
//
// Assets are keyed by (kind, path). Templates are YAML files, sprites are
// images decoded with image.Decode (PNG, JPEG, GIF, BMP and WebP), and text
// assets are returned as strings. Asynchronous loads run on a worker
// goroutine and complete through a Dispatcher on the UI thread; concurrent
// requests for the same key share one load.
package resource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"path"
	"slices"
	"sort"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	uierrors "github.com/go-drift/panelkit/pkg/errors"
	"github.com/go-drift/panelkit/pkg/host"
)

var (
	// ErrNotFound is returned when no file matches a path.
	ErrNotFound = errors.New("resource: not found")
	// ErrUnknownKind is returned for kinds without a loader.
	ErrUnknownKind = errors.New("resource: unknown asset kind")
)

// Extensions tried, in order, when a path has none.
var (
	TemplateExts = []string{".yaml", ".yml"}
	SpriteExts   = []string{".png", ".webp", ".bmp", ".jpg", ".jpeg", ".gif"}
	TextExts     = []string{".txt", ""}
)

// Sprite is a decoded image.
type Sprite struct {
	Path   string
	Format string
	Image  image.Image
}

// Size returns the pixel dimensions of the sprite.
func (s *Sprite) Size() (w, h int) {
	b := s.Image.Bounds()
	return b.Dx(), b.Dy()
}

// Dispatcher runs fn on the UI thread.
type Dispatcher func(fn func())

// Loader decodes the raw bytes of one asset kind.
type Loader func(path string, data []byte) (any, error)

type key struct {
	kind string
	path string
}

type entry struct {
	asset any
	gen   int
}

type waiter struct {
	ctx  context.Context
	done func(any, error)
}

// Provider loads and caches assets. All methods must be called on the UI
// thread.
type Provider struct {
	fsys     fs.FS
	dispatch Dispatcher
	loaders  map[string]loader
	cache    map[key]*entry
	inflight map[key][]waiter
	gen      int
}

type loader struct {
	exts []string
	load Loader
}

// Option configures a Provider.
type Option func(*Provider)

// WithDispatcher makes LoadAsync load on a worker goroutine and complete
// through d. Without a dispatcher, LoadAsync loads inline.
func WithDispatcher(d Dispatcher) Option {
	return func(p *Provider) { p.dispatch = d }
}

// WithLoader registers a loader for kind, trying exts when a path has no
// extension.
func WithLoader(kind string, exts []string, l Loader) Option {
	return func(p *Provider) { p.loaders[kind] = loader{exts: exts, load: l} }
}

// New returns a provider reading from fsys.
func New(fsys fs.FS, opts ...Option) *Provider {
	p := &Provider{
		fsys:     fsys,
		cache:    make(map[key]*entry),
		inflight: make(map[key][]waiter),
		loaders: map[string]loader{
			host.KindTemplate: {exts: TemplateExts, load: loadTemplate},
			host.KindSprite:   {exts: SpriteExts, load: loadSprite},
			host.KindText:     {exts: TextExts, load: loadText},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load returns the cached asset or loads it synchronously.
func (p *Provider) Load(kind, name string) (any, error) {
	k := key{kind, name}
	if e, ok := p.cache[k]; ok {
		e.gen = p.gen
		return e.asset, nil
	}
	asset, err := p.read(kind, name)
	if err != nil {
		p.report(kind, name, err)
		return nil, err
	}
	p.cache[k] = &entry{asset: asset, gen: p.gen}
	return asset, nil
}

// LoadAsync loads an asset and calls done once on the UI thread. A cached
// asset still completes through the dispatcher. Completions whose ctx is
// done by the time they run are dropped.
func (p *Provider) LoadAsync(ctx context.Context, kind, name string, done func(any, error)) {
	if done == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if p.dispatch == nil {
		asset, err := p.Load(kind, name)
		if ctx.Err() == nil {
			uierrors.Call("resource.LoadAsync", func() { done(asset, err) })
		}
		return
	}

	k := key{kind, name}
	if e, ok := p.cache[k]; ok {
		e.gen = p.gen
		p.dispatch(func() { p.complete(waiter{ctx, done}, e.asset, nil) })
		return
	}

	waiters, loading := p.inflight[k]
	p.inflight[k] = append(waiters, waiter{ctx, done})
	if loading {
		return
	}

	go func() {
		asset, err := p.read(kind, name)
		p.dispatch(func() { p.finish(k, asset, err) })
	}()
}

// finish runs on the UI thread once a worker load completes.
func (p *Provider) finish(k key, asset any, err error) {
	waiters := p.inflight[k]
	delete(p.inflight, k)
	if err != nil {
		p.report(k.kind, k.path, err)
	} else {
		p.cache[k] = &entry{asset: asset, gen: p.gen}
	}
	for _, w := range waiters {
		p.complete(w, asset, err)
	}
}

func (p *Provider) complete(w waiter, asset any, err error) {
	if w.ctx.Err() != nil {
		return
	}
	uierrors.Call("resource.LoadAsync", func() { w.done(asset, err) })
}

// Pending returns the number of keys with a load in flight.
func (p *Provider) Pending() int { return len(p.inflight) }

// Cached reports whether (kind, name) is cached.
func (p *Provider) Cached(kind, name string) bool {
	_, ok := p.cache[key{kind, name}]
	return ok
}

// Len returns the number of cached assets.
func (p *Provider) Len() int { return len(p.cache) }

// Keys returns the cached keys as "kind:path", sorted.
func (p *Provider) Keys() []string {
	keys := make([]string, 0, len(p.cache))
	for k := range p.cache {
		keys = append(keys, k.kind+":"+k.path)
	}
	sort.Strings(keys)
	return keys
}

// Unload drops one cached asset.
func (p *Provider) Unload(kind, name string) {
	delete(p.cache, key{kind, name})
}

// ClearCache drops every cached asset.
func (p *Provider) ClearCache() {
	p.cache = make(map[key]*entry)
}

// UnloadUnused drops every asset not loaded since the previous call.
func (p *Provider) UnloadUnused() {
	for k, e := range p.cache {
		if e.gen < p.gen {
			delete(p.cache, k)
		}
	}
	p.gen++
}

// Exists reports whether a file for (kind, name) exists without loading it.
func (p *Provider) Exists(kind, name string) bool {
	l, ok := p.loaders[kind]
	if !ok {
		return false
	}
	_, err := p.resolve(name, l.exts)
	return err == nil
}

// read resolves and decodes an asset. It touches no Provider state besides
// the immutable loader table, so workers may call it.
func (p *Provider) read(kind, name string) (any, error) {
	l, ok := p.loaders[kind]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}
	file, err := p.resolve(name, l.exts)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(p.fsys, file)
	if err != nil {
		return nil, fmt.Errorf("resource: read %s: %w", file, err)
	}
	return l.load(file, data)
}

func (p *Provider) resolve(name string, exts []string) (string, error) {
	if p.fsys == nil {
		return "", fmt.Errorf("%w: %s (no file system)", ErrNotFound, name)
	}
	name = path.Clean(name)
	if path.Ext(name) != "" || slices.Contains(exts, "") {
		if _, err := fs.Stat(p.fsys, name); err == nil {
			return name, nil
		}
	}
	for _, ext := range exts {
		if ext == "" {
			continue
		}
		candidate := name + ext
		if _, err := fs.Stat(p.fsys, candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

func (p *Provider) report(kind, name string, err error) {
	uierrors.Report(&uierrors.UIError{
		Op:   "resource.Load(" + kind + ":" + name + ")",
		Kind: uierrors.KindResource,
		Err:  err,
	})
}

func loadTemplate(file string, data []byte) (any, error) {
	return ParseTemplate(file, data)
}

func loadSprite(file string, data []byte) (any, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("resource: decode %s: %w", file, err)
	}
	return &Sprite{Path: file, Format: format, Image: img}, nil
}

func loadText(_ string, data []byte) (any, error) {
	return string(data), nil
}
