package ml

import (
	"sync"
	"sync/atomic"
)

// LoaderFunc loads a regressor and its artifact description.
type LoaderFunc func(modelType, path string) (Regressor, ArtifactInfo, error)

// Provider loads the model at most once per process. The first call to
// Model decides the outcome; later calls return the same model or the same
// error without touching the disk again.
type Provider struct {
	modelType string
	path      string
	loader    LoaderFunc
	onLoad    func(ArtifactInfo, error)

	once  sync.Once
	model Regressor
	info  ArtifactInfo
	err   error
	loads atomic.Int64
}

type ProviderOption func(*Provider)

// WithLoader replaces the artifact loader.
func WithLoader(loader LoaderFunc) ProviderOption {
	return func(p *Provider) {
		p.loader = loader
	}
}

// WithLoadHook registers fn to observe the single load attempt.
func WithLoadHook(fn func(ArtifactInfo, error)) ProviderOption {
	return func(p *Provider) {
		p.onLoad = fn
	}
}

func NewProvider(modelType, path string, opts ...ProviderOption) *Provider {
	p := &Provider{
		modelType: modelType,
		path:      path,
		loader:    loadModel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Model returns the shared regressor, loading it on first use.
func (p *Provider) Model() (Regressor, error) {
	p.once.Do(p.load)
	if p.err != nil {
		return nil, p.err
	}
	return p.model, nil
}

// Info returns the artifact description once a load has succeeded.
func (p *Provider) Info() (ArtifactInfo, bool) {
	if _, err := p.Model(); err != nil {
		return ArtifactInfo{}, false
	}
	return p.info, true
}

// Loads reports how many times the loader has run.
func (p *Provider) Loads() int64 {
	return p.loads.Load()
}

func (p *Provider) Path() string {
	return p.path
}

func (p *Provider) load() {
	p.loads.Add(1)
	model, info, err := p.loader(p.modelType, p.path)
	if err == nil && model == nil {
		err = ErrUnsupportedModel
	}
	if err != nil {
		p.err = err
	} else {
		p.model = model
		p.info = info
	}
	if p.onLoad != nil {
		p.onLoad(info, err)
	}
}
