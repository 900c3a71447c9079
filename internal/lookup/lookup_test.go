package lookup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingFetcher struct {
	mu      sync.Mutex
	queries []string
	results map[string][]string
	err     error
	block   chan struct{}
}

func (f *recordingFetcher) fetch(_ context.Context, query string) ([]string, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func (f *recordingFetcher) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func waitForUpdate(t *testing.T, l *Lookup[string]) []string {
	t.Helper()
	select {
	case results := <-l.Updates():
		return results
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for lookup results")
		return nil
	}
}

func TestLookupDebouncesBursts(t *testing.T) {
	fetcher := &recordingFetcher{results: map[string][]string{
		"app": {"apple", "apricot"},
	}}
	l := New(fetcher.fetch, WithDebounce[string](30*time.Millisecond))
	defer l.Close()

	ctx := context.Background()
	l.Query(ctx, "a")
	l.Query(ctx, "ap")
	l.Query(ctx, "app")

	results := waitForUpdate(t, l)
	assert.Equal(t, []string{"apple", "apricot"}, results)
	// Only the settled query fires.
	assert.Equal(t, []string{"app"}, fetcher.seen())
}

func TestLookupCapsResults(t *testing.T) {
	fetcher := &recordingFetcher{results: map[string][]string{
		"s": {"s1", "s2", "s3", "s4", "s5", "s6", "s7"},
	}}
	l := New(fetcher.fetch, WithDebounce[string](10*time.Millisecond))
	defer l.Close()

	l.Query(context.Background(), "s")
	results := waitForUpdate(t, l)
	assert.Len(t, results, DefaultLimit)
}

func TestLookupKeepsResultsOnFetchError(t *testing.T) {
	fetcher := &recordingFetcher{results: map[string][]string{
		"ok": {"first"},
	}}
	l := New(fetcher.fetch, WithDebounce[string](10*time.Millisecond))
	defer l.Close()

	ctx := context.Background()
	l.Query(ctx, "ok")
	require.Equal(t, []string{"first"}, waitForUpdate(t, l))

	fetcher.err = errors.New("backend down")
	l.Query(ctx, "fail")
	require.Eventually(t, func() bool {
		return len(fetcher.seen()) == 2
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"first"}, l.Results())
}

func TestLookupDiscardsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	fetcher := &recordingFetcher{
		results: map[string][]string{
			"slow": {"stale"},
			"fast": {"fresh"},
		},
		block: release,
	}
	l := New(fetcher.fetch, WithDebounce[string](5*time.Millisecond))
	defer l.Close()

	ctx := context.Background()
	l.Query(ctx, "slow")
	time.Sleep(20 * time.Millisecond) // let the slow fetch start and park

	l.Query(ctx, "fast")
	time.Sleep(20 * time.Millisecond)
	close(release) // both fetches complete; only "fast" may land

	require.Equal(t, []string{"fresh"}, waitForUpdate(t, l))
	assert.Equal(t, []string{"fresh"}, l.Results())
}

func TestLookupEmptyQueryClearsResults(t *testing.T) {
	fetcher := &recordingFetcher{results: map[string][]string{
		"x": {"item"},
	}}
	l := New(fetcher.fetch, WithDebounce[string](10*time.Millisecond))
	defer l.Close()

	ctx := context.Background()
	l.Query(ctx, "x")
	require.Equal(t, []string{"item"}, waitForUpdate(t, l))

	l.Query(ctx, "")
	assert.Empty(t, waitForUpdate(t, l))
	assert.Empty(t, l.Results())
}

func TestLookupQueryAfterCloseIsNoop(t *testing.T) {
	fetcher := &recordingFetcher{}
	l := New(fetcher.fetch, WithDebounce[string](5*time.Millisecond))
	l.Close()

	l.Query(context.Background(), "anything")
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, fetcher.seen())
}
