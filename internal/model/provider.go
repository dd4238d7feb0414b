package model

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

type LoadFunc func(ctx context.Context) (*Classifier, error)

// Provider loads the classifier once and shares it for the life of the process.
// A failed load is returned to the caller and attempted again on the next Get.
type Provider struct {
	load LoadFunc

	// loadMu makes concurrent Get calls wait on a single load; readers of
	// classifier never take it.
	loadMu     sync.Mutex
	classifier atomic.Pointer[Classifier]
}

func NewProvider(load LoadFunc) *Provider {
	return &Provider{load: load}
}

// Static wraps an already built classifier.
func Static(c *Classifier) *Provider {
	p := &Provider{}
	p.classifier.Store(c)
	return p
}

// NewONNXProvider loads the ONNX model described by opts on first use.
func NewONNXProvider(opts LoadOptions) *Provider {
	return NewProvider(func(ctx context.Context) (*Classifier, error) {
		server, err := Load(ctx, opts)
		if err != nil {
			return nil, err
		}
		return NewClassifier(server, server.Metadata), nil
	})
}

func (p *Provider) Get(ctx context.Context) (*Classifier, error) {
	if c := p.classifier.Load(); c != nil {
		return c, nil
	}

	p.loadMu.Lock()
	defer p.loadMu.Unlock()

	if c := p.classifier.Load(); c != nil {
		return c, nil
	}
	if p.load == nil {
		return nil, &LoadError{Source: "static", Err: errors.New("model provider is closed")}
	}
	c, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	p.classifier.Store(c)
	return c, nil
}

// Loaded reports whether a classifier is ready without triggering or
// waiting on a load.
func (p *Provider) Loaded() bool {
	return p.classifier.Load() != nil
}

func (p *Provider) Close() {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	if c := p.classifier.Swap(nil); c != nil {
		c.Close()
	}
}
