package client

import (
	"context"
	"errors"
	"slices"
	"sync"

	"assetmarket/internal/catalog"
)

// ErrSuperseded is returned for a response that arrived after a newer
// request for the same resource was started, or after Reset
var ErrSuperseded = errors.New("client: response superseded by a newer request")

// API is the subset of the server the projection reads from
type API interface {
	ListAssets(ctx context.Context, p catalog.ListParams) (*catalog.Page, error)
	Featured(ctx context.Context) ([]catalog.AssetSummary, error)
	Asset(ctx context.Context, id uint) (*catalog.AssetDetail, error)
	Wishlist(ctx context.Context) ([]catalog.AssetSummary, error)
	AddToWishlist(ctx context.Context, assetID uint) (*catalog.AssetSummary, error)
	RemoveFromWishlist(ctx context.Context, assetID uint) error
}

// Resource names one independently fetched slice of the projection
type Resource string

const (
	ResourcePage     Resource = "page"
	ResourceAsset    Resource = "asset"
	ResourceFeatured Resource = "featured"
	ResourceWishlist Resource = "wishlist"
)

// Status is the fetch state of one resource
type Status struct {
	Loading bool
	Err     error
}

// Snapshot is a copy of the projection at one instant
type Snapshot struct {
	Assets      []catalog.AssetSummary
	CurrentPage int
	TotalPages  int
	TotalCount  int64
	Current     *catalog.AssetDetail
	Featured    []catalog.AssetSummary
	Wishlist    []catalog.AssetSummary
	Status      map[Resource]Status
}

// Projection mirrors server resources for display. Each resource has its own
// request sequence: starting a fetch cancels the one in flight for that
// resource, and only the latest response is applied.
type Projection struct {
	api API

	mu     sync.Mutex
	state  Snapshot
	seq    map[Resource]uint64
	cancel map[Resource]context.CancelFunc
}

// NewProjection creates an empty projection
func NewProjection(api API) *Projection {
	p := &Projection{
		api:    api,
		seq:    make(map[Resource]uint64),
		cancel: make(map[Resource]context.CancelFunc),
	}
	p.state = emptySnapshot()
	return p
}

func emptySnapshot() Snapshot {
	return Snapshot{
		Assets:      []catalog.AssetSummary{},
		CurrentPage: catalog.DefaultPage,
		TotalPages:  1,
		Featured:    []catalog.AssetSummary{},
		Wishlist:    []catalog.AssetSummary{},
		Status:      make(map[Resource]Status),
	}
}

// Bind resets the projection whenever session logs out
func (p *Projection) Bind(session *Session) {
	session.OnLogout(p.Reset)
}

// begin starts a request for r: the previous one is cancelled, loading is
// set and the error cleared
func (p *Projection) begin(ctx context.Context, r Resource) (context.Context, uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cancel, ok := p.cancel[r]; ok {
		cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	p.seq[r]++
	p.cancel[r] = cancel
	p.state.Status[r] = Status{Loading: true}
	return ctx, p.seq[r]
}

// finish applies the outcome of request seq for r unless it was superseded.
// On failure the data is left untouched.
func (p *Projection) finish(r Resource, seq uint64, err error, apply func(*Snapshot)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seq[r] != seq {
		return ErrSuperseded
	}
	if cancel, ok := p.cancel[r]; ok {
		cancel()
		delete(p.cancel, r)
	}
	if err != nil {
		p.state.Status[r] = Status{Err: err}
		return err
	}
	p.state.Status[r] = Status{}
	apply(&p.state)
	return nil
}

// LoadPage fetches a catalog page and replaces the listing
func (p *Projection) LoadPage(ctx context.Context, params catalog.ListParams) error {
	ctx, seq := p.begin(ctx, ResourcePage)
	page, err := p.api.ListAssets(ctx, params)
	return p.finish(ResourcePage, seq, err, func(s *Snapshot) {
		s.Assets = page.Items
		s.CurrentPage = page.CurrentPage
		s.TotalPages = page.TotalPages
		s.TotalCount = page.TotalCount
	})
}

// LoadFeatured fetches the featured list
func (p *Projection) LoadFeatured(ctx context.Context) error {
	ctx, seq := p.begin(ctx, ResourceFeatured)
	items, err := p.api.Featured(ctx)
	return p.finish(ResourceFeatured, seq, err, func(s *Snapshot) {
		s.Featured = items
	})
}

// LoadAsset fetches one asset and makes it current
func (p *Projection) LoadAsset(ctx context.Context, id uint) error {
	ctx, seq := p.begin(ctx, ResourceAsset)
	detail, err := p.api.Asset(ctx, id)
	return p.finish(ResourceAsset, seq, err, func(s *Snapshot) {
		s.Current = detail
	})
}

// ClearAsset forgets the current asset
func (p *Projection) ClearAsset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Current = nil
}

// LoadWishlist fetches the caller's wishlist
func (p *Projection) LoadWishlist(ctx context.Context) error {
	ctx, seq := p.begin(ctx, ResourceWishlist)
	items, err := p.api.Wishlist(ctx)
	return p.finish(ResourceWishlist, seq, err, func(s *Snapshot) {
		s.Wishlist = items
	})
}

// AddToWishlist saves an asset on the server, then appends the server's copy.
// Nothing changes locally until the server confirms.
func (p *Projection) AddToWishlist(ctx context.Context, assetID uint) error {
	item, err := p.api.AddToWishlist(ctx, assetID)
	if err != nil {
		p.setError(ResourceWishlist, err)
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !slices.ContainsFunc(p.state.Wishlist, func(a catalog.AssetSummary) bool { return a.ID == item.ID }) {
		p.state.Wishlist = append(p.state.Wishlist, *item)
	}
	return nil
}

// RemoveFromWishlist drops an asset on the server, then locally
func (p *Projection) RemoveFromWishlist(ctx context.Context, assetID uint) error {
	if err := p.api.RemoveFromWishlist(ctx, assetID); err != nil {
		p.setError(ResourceWishlist, err)
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Wishlist = slices.DeleteFunc(p.state.Wishlist, func(a catalog.AssetSummary) bool { return a.ID == assetID })
	return nil
}

func (p *Projection) setError(r Resource, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.state.Status[r]
	st.Err = err
	p.state.Status[r] = st
}

// ClearError drops the error recorded for r
func (p *Projection) ClearError(r Resource) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.state.Status[r]
	st.Err = nil
	p.state.Status[r] = st
}

// Status returns the fetch state of r
func (p *Projection) Status(r Resource) Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.Status[r]
}

// Snapshot returns a copy of the current state
func (p *Projection) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.state
	s.Assets = slices.Clone(p.state.Assets)
	s.Featured = slices.Clone(p.state.Featured)
	s.Wishlist = slices.Clone(p.state.Wishlist)
	s.Status = make(map[Resource]Status, len(p.state.Status))
	for r, st := range p.state.Status {
		s.Status[r] = st
	}
	return s
}

// Reset cancels every request in flight and empties the projection.
// Responses to those requests are discarded.
func (p *Projection) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for r, cancel := range p.cancel {
		cancel()
		p.seq[r]++
		delete(p.cancel, r)
	}
	p.state = emptySnapshot()
}
