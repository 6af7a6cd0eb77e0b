package live

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/inventory-console/internal/domain"
	"github.com/spec-kit/inventory-console/internal/store"
)

// Source is the part of the request store the dashboard reads.
type Source interface {
	Get(ctx context.Context, path string) (any, error)
	Subscribe(path string, handler store.Handler) *store.Listener
}

// Inventory supplies the stock mapping joined into component rows.
type Inventory interface {
	Fetch(ctx context.Context) map[string]domain.InventoryItem
}

// View is one immutable render of the manager tables.
type View struct {
	Version    uint64         `json:"version"`
	RenderedAt time.Time      `json:"rendered_at"`
	Components []ComponentRow `json:"components"`
	Prints     []PrintRow     `json:"prints"`
	ChatUsers  []ChatUser     `json:"chat_users"`
}

// Dashboard holds one requests subscription shared by every watcher. The
// subscription is attached by the first Acquire and detached by the last release.
type Dashboard struct {
	source    Source
	inventory Inventory
	loc       *time.Location
	logger    *zap.Logger

	version atomic.Uint64
	current atomic.Pointer[View]

	mu       sync.Mutex
	gen      uint64
	listener *store.Listener
	watchers map[chan *View]struct{}
}

// NewDashboard builds a dashboard over source.
func NewDashboard(source Source, inventory Inventory, loc *time.Location, logger *zap.Logger) *Dashboard {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dashboard{
		source:    source,
		inventory: inventory,
		loc:       loc,
		logger:    logger,
		watchers:  make(map[chan *View]struct{}),
	}
}

// Build renders a view from a requests snapshot. It is a pure function of its inputs.
func Build(requests any, items map[string]domain.InventoryItem, loc *time.Location) *View {
	return &View{
		RenderedAt: time.Now(),
		Components: ComponentRows(requests, items, loc),
		Prints:     PrintRows(requests, loc),
		ChatUsers:  ChatUsers(requests),
	}
}

// Acquire registers a watcher. The channel holds the latest view; older
// undelivered views are dropped. Call release exactly once.
func (d *Dashboard) Acquire() (<-chan *View, func()) {
	ch := make(chan *View, 1)

	d.mu.Lock()
	d.watchers[ch] = struct{}{}
	if d.listener == nil {
		d.gen++
		gen := d.gen
		d.listener = d.source.Subscribe(domain.RequestsRoot, func(ctx context.Context, snapshot any) {
			d.render(ctx, gen, snapshot)
		})
		d.logger.Debug("dashboard subscription attached")
	} else if view := d.current.Load(); view != nil {
		ch <- view
	}
	d.mu.Unlock()

	var once sync.Once
	return ch, func() { once.Do(func() { d.release(ch) }) }
}

func (d *Dashboard) release(ch chan *View) {
	d.mu.Lock()
	delete(d.watchers, ch)
	var detached *store.Listener
	if len(d.watchers) == 0 && d.listener != nil {
		detached = d.listener
		d.listener = nil
		d.gen++
		d.current.Store(nil)
	}
	d.mu.Unlock()

	if detached != nil {
		detached.Off()
		d.logger.Debug("dashboard subscription detached")
	}
}

// Current returns the latest render, or renders once from a fresh read when
// nobody is watching.
func (d *Dashboard) Current(ctx context.Context) (*View, error) {
	if view := d.current.Load(); view != nil {
		return view, nil
	}
	snapshot, err := d.source.Get(ctx, domain.RequestsRoot)
	if err != nil {
		return nil, err
	}
	view := Build(snapshot, d.inventory.Fetch(ctx), d.loc)
	view.Version = d.version.Load()
	return view, nil
}

// Watching reports whether the shared subscription is attached.
func (d *Dashboard) Watching() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listener != nil
}

func (d *Dashboard) render(ctx context.Context, gen uint64, snapshot any) {
	items := d.inventory.Fetch(ctx)
	view := Build(snapshot, items, d.loc)

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.gen {
		return
	}
	view.Version = d.version.Add(1)
	d.current.Store(view)
	for ch := range d.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- view
	}
	d.logger.Debug("dashboard rendered",
		zap.Uint64("version", view.Version),
		zap.Int("components", len(view.Components)),
		zap.Int("prints", len(view.Prints)),
		zap.Int("inventory_items", len(items)))
}
