package bufmgr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"btreeidx/internal/page"
	"btreeidx/internal/pagefile"
)

func newTestBufMgr(t *testing.T, capacity int) *BufMgr {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.dat")
	pf, err := pagefile.Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { pf.Close(); os.Remove(path) })

	bm, err := New(pf, capacity, 1<<20)
	require.NoError(t, err)
	return bm
}

func TestAllocAndReadRoundTrip(t *testing.T) {
	bm := newTestBufMgr(t, 8)

	pid, pg, err := bm.AllocPage()
	require.NoError(t, err)
	copy(pg.Data, []byte("hello page"))
	require.NoError(t, bm.UnpinPage(pid, true))
	require.NoError(t, bm.FlushFile())

	pg2, err := bm.ReadPage(pid)
	require.NoError(t, err)
	require.Equal(t, []byte("hello page"), pg2.Data[:len("hello page")])
	require.NoError(t, bm.UnpinPage(pid, false))

	require.Equal(t, 0, bm.PinCount())
}

func TestUnpinWithoutPinIsError(t *testing.T) {
	bm := newTestBufMgr(t, 8)
	err := bm.UnpinPage(page.Num(999), false)
	require.Error(t, err)
}

func TestEvictionRefusesWhenAllPinned(t *testing.T) {
	bm := newTestBufMgr(t, 2)

	_, _, err := bm.AllocPage()
	require.NoError(t, err)
	_, _, err = bm.AllocPage()
	require.NoError(t, err)

	_, _, err = bm.AllocPage()
	require.Error(t, err, "third alloc should fail: both frames pinned, nothing to evict")
}

func TestEvictedCleanPageReadsBackFlushedBytes(t *testing.T) {
	bm := newTestBufMgr(t, 1)

	pid, pg, err := bm.AllocPage()
	require.NoError(t, err)
	copy(pg.Data, []byte("first"))
	require.NoError(t, bm.UnpinPage(pid, true))
	require.NoError(t, bm.FlushFile())

	// Force eviction of pid by bringing in a second page while capacity is 1.
	pid2, pg2, err := bm.AllocPage()
	require.NoError(t, err)
	copy(pg2.Data, []byte("second"))
	require.NoError(t, bm.UnpinPage(pid2, true))

	// pid was clean after flush, so eviction offered it to the second-chance
	// cache. ristretto admits asynchronously, so the read may be served from
	// that cache or from disk; either way it must return the flushed bytes.
	back, err := bm.ReadPage(pid)
	require.NoError(t, err)
	require.Equal(t, []byte("first"), back.Data[:len("first")])
	require.NoError(t, bm.UnpinPage(pid, false))
}

// PinTracker wraps a BufMgr and reports how many of its pages are pinned,
// so a test can assert the "returns to zero pinned pages after every
// non-scan call" invariant. It is defined in this test file and is only
// visible to this package's tests.
type PinTracker struct {
	*BufMgr
}

func NewPinTracker(bm *BufMgr) *PinTracker {
	return &PinTracker{BufMgr: bm}
}

// NetPins returns the current count of pages with a nonzero pin count.
func (pt *PinTracker) NetPins() int {
	return pt.PinCount()
}

func TestPinTrackerObservesNetZero(t *testing.T) {
	bm := newTestBufMgr(t, 4)
	pt := NewPinTracker(bm)

	pid, _, err := bm.AllocPage()
	require.NoError(t, err)
	require.Equal(t, 1, pt.NetPins())
	require.NoError(t, bm.UnpinPage(pid, true))
	require.Equal(t, 0, pt.NetPins())
}
