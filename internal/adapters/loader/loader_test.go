package loader

import (
	"context"
	"errors"
	"testing"

	"gtasync/internal/core"
	"gtasync/internal/infra/source/memory"
	"gtasync/pkg/domain"
)

type countingFetcher struct {
	*memory.Store
	calls int
}

func (c *countingFetcher) FetchElement(ctx context.Context, id int64) (domain.Element, error) {
	c.calls++
	return c.Store.FetchElement(ctx, id)
}

func TestLoadHeldElementSkipsFetch(t *testing.T) {
	ctx := context.Background()
	svc := core.NewInMemoryService()
	label := "held"
	if err := svc.RefreshElements(ctx, core.ElementsPayload{Elements: []core.ElementPatch{{ID: 1, Label: &label}}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	fetcher := &countingFetcher{Store: memory.New()}

	res, err := New(svc, fetcher, nil).Load(ctx, 1)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Fetched || res.Element == nil || res.Element.Label != "held" || fetcher.calls != 0 {
		t.Fatalf("unexpected result %+v calls=%d", res, fetcher.calls)
	}
}

func TestLoadMissFetchesAndOpens(t *testing.T) {
	ctx := context.Background()
	svc := core.NewInMemoryService()
	fetcher := &countingFetcher{Store: memory.New(domain.Element{ID: 7, Kind: "site", Label: "Depot"})}
	l := New(svc, fetcher, nil)

	res, err := l.Load(ctx, 7)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !res.Fetched || res.Element.Label != "Depot" {
		t.Fatalf("unexpected result: %+v", res)
	}
	snap := svc.Snapshot()
	if len(snap.Elements) != 1 || snap.Opened == nil || snap.Opened.ID != 7 {
		t.Fatalf("fetched element not held and opened: %+v", snap)
	}

	if res, err = l.Load(ctx, 7); err != nil || res.Fetched || fetcher.calls != 1 {
		t.Fatalf("second load should hit the store: %+v calls=%d err=%v", res, fetcher.calls, err)
	}
}

func TestLoadSourceMiss(t *testing.T) {
	ctx := context.Background()
	svc := core.NewInMemoryService()

	_, err := New(svc, memory.New(), nil).Load(ctx, 9)

	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if snap := svc.Snapshot(); len(snap.Elements) != 0 || snap.Opened != nil {
		t.Fatalf("store changed on source miss: %+v", snap)
	}
}

func TestLoadCancelledSkipsFetch(t *testing.T) {
	svc := core.NewInMemoryService()
	fetcher := &countingFetcher{Store: memory.New(domain.Element{ID: 7})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(svc, fetcher, nil).Load(ctx, 7)

	if !errors.Is(err, context.Canceled) || fetcher.calls != 0 {
		t.Fatalf("unexpected outcome: err=%v calls=%d", err, fetcher.calls)
	}
}
