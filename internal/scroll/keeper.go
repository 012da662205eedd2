// Package scroll snapshots and restores the scroll state of a page across a
// soft reload, through tab-scoped session storage.
package scroll

import (
	"context"

	"golang.org/x/net/html"

	"github.com/bft-labs/liveagent/internal/dom"
	"github.com/bft-labs/liveagent/internal/domain"
	"github.com/bft-labs/liveagent/internal/ports"
)

// Keeper saves scroll offsets before a reload cycle and puts them back after
// the live content has been replaced.
type Keeper struct {
	page   ports.Page
	store  ports.SessionStore
	logger ports.Logger
}

// NewKeeper creates a Keeper for page backed by store.
func NewKeeper(page ports.Page, store ports.SessionStore, logger ports.Logger) *Keeper {
	return &Keeper{
		page:   page,
		store:  store,
		logger: logger,
	}
}

// Capture reads the current scroll state of the page.
func (k *Keeper) Capture() domain.ScrollSnapshot {
	var s domain.ScrollSnapshot
	s.WindowX, s.WindowY = k.page.WindowScroll()

	for _, el := range dom.ScrollTargets(k.page.Document()) {
		x, y := k.page.ElementScroll(el)
		s.Elements = append(s.Elements, domain.ElementScroll{
			ID:       dom.Attr(el, "id"),
			Selector: dom.UniqueSelector(el),
			X:        x,
			Y:        y,
		})
	}
	return s
}

// Snapshot captures the scroll state and writes it to session storage,
// overwriting whatever an earlier snapshot left behind. Stale entries with
// higher indices are left in place.
func (k *Keeper) Snapshot(ctx context.Context) error {
	s := k.Capture()
	for key, value := range s.Entries() {
		if err := k.store.Set(ctx, key, value); err != nil {
			return err
		}
	}
	k.logger.Debug("scroll snapshot saved",
		ports.Float64("x", s.WindowX),
		ports.Float64("y", s.WindowY),
		ports.Int("elements", len(s.Elements)),
	)
	return nil
}

// Restore applies the stored scroll state to the page. It is best-effort:
// storage errors end the restore, unparsable offsets and elements that can
// no longer be found are skipped. It returns the number of elements scrolled.
func (k *Keeper) Restore(ctx context.Context) int {
	if x, y, ok := k.windowOffsets(ctx); ok {
		k.page.ScrollWindowTo(x, y)
	}

	doc := k.page.Document()
	restored := 0
	for i := 0; ; i++ {
		xs, okX, errX := k.store.Get(ctx, domain.ElementKey(i, domain.FieldX))
		ys, okY, errY := k.store.Get(ctx, domain.ElementKey(i, domain.FieldY))
		if errX != nil || errY != nil {
			k.logger.Debug("scroll restore stopped on storage error", ports.Int("index", i))
			break
		}
		// Indices are written contiguously, so a missing offset pair ends the list.
		if !okX || !okY {
			break
		}

		x, errX := domain.ParseOffset(xs)
		y, errY := domain.ParseOffset(ys)
		if errX != nil || errY != nil {
			continue
		}

		id, _, _ := k.store.Get(ctx, domain.ElementKey(i, domain.FieldID))
		selector, _, _ := k.store.Get(ctx, domain.ElementKey(i, domain.FieldSelector))

		el := locate(doc, id, selector)
		if el == nil {
			continue
		}
		k.page.SetElementScroll(el, x, y)
		restored++
	}
	return restored
}

func (k *Keeper) windowOffsets(ctx context.Context) (float64, float64, bool) {
	xs, okX, errX := k.store.Get(ctx, domain.KeyScrollX)
	ys, okY, errY := k.store.Get(ctx, domain.KeyScrollY)
	if errX != nil || errY != nil || !okX || !okY {
		return 0, 0, false
	}
	x, errX := domain.ParseOffset(xs)
	y, errY := domain.ParseOffset(ys)
	if errX != nil || errY != nil {
		return 0, 0, false
	}
	return x, y, true
}

// locate finds an element by id first, then by selector.
func locate(doc *html.Node, id, selector string) *html.Node {
	if id != "" {
		if el := dom.ElementByID(doc, id); el != nil {
			return el
		}
	}
	if selector == "" {
		return nil
	}
	el, err := dom.QueryFirst(doc, selector)
	if err != nil {
		return nil
	}
	return el
}
