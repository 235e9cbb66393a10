package game

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/binaryquiz/go/internal/models"
)

// AssetFetcher downloads the raw bytes behind an image ref.
type AssetFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// AssetLoader fetches round images and holds them back until a minimum reveal
// delay has passed since the load began. It keeps no state about the handles
// it hands out.
type AssetLoader struct {
	fetcher AssetFetcher
	handles *HandleRegistry
	clock   clockwork.Clock
}

// NewAssetLoader creates a loader that allocates handles in handles.
func NewAssetLoader(fetcher AssetFetcher, handles *HandleRegistry, clock clockwork.Clock) *AssetLoader {
	return &AssetLoader{
		fetcher: fetcher,
		handles: handles,
		clock:   clock,
	}
}

type fetchResult struct {
	data []byte
	err  error
}

// Load returns a handle once both the fetch completed and minDelay elapsed.
// The two waits run concurrently, so a slow fetch is not delayed further. A
// failed fetch is reported right away as ErrAssetLoadFailed. On success the
// caller owns the handle and must release it.
func (l *AssetLoader) Load(ctx context.Context, round models.RoundDefinition, minDelay time.Duration) (Handle, error) {
	fetched := make(chan fetchResult, 1)
	go func() {
		data, err := l.fetcher.Fetch(ctx, round.ImageRef)
		fetched <- fetchResult{data: data, err: err}
	}()

	var delay <-chan time.Time
	delayDone := minDelay <= 0
	if !delayDone {
		timer := l.clock.NewTimer(minDelay)
		defer stopAndDrainTimer(timer)
		delay = timer.Chan()
	}

	var res *fetchResult
	for res == nil || !delayDone {
		select {
		case r := <-fetched:
			if r.err != nil {
				return Handle{}, fmt.Errorf("%w: %s: %w", ErrAssetLoadFailed, round.ImageRef, r.err)
			}
			res = &r
			fetched = nil
		case <-delay:
			delayDone = true
			delay = nil
		case <-ctx.Done():
			return Handle{}, ctx.Err()
		}
	}

	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}

	h, err := l.handles.Acquire(round.ImageRef, res.data)
	if err != nil {
		return Handle{}, fmt.Errorf("acquire handle for %s: %w", round.ImageRef, err)
	}
	return h, nil
}
