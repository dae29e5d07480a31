package heap

import (
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"btreeidx/internal/bufmgr"
	"btreeidx/internal/pagefile"
)

func newTestHeap(t *testing.T) *HeapFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heap.dat")
	pf, err := pagefile.Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { pf.Close() })

	bm, err := bufmgr.New(pf, 16, 1<<20)
	require.NoError(t, err)
	return NewHeapFile(bm)
}

func tupleWithInt(key int32) []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(key))
	copy(buf[4:], "abcdefgh")
	return buf
}

func TestInsertAndGetTuple(t *testing.T) {
	hf := newTestHeap(t)

	rid, err := hf.InsertTuple(tupleWithInt(42))
	require.NoError(t, err)

	got, err := hf.GetTuple(rid)
	require.NoError(t, err)
	key, err := ExtractInt32(got, 0)
	require.NoError(t, err)
	require.EqualValues(t, 42, key)
}

func TestSequentialScannerVisitsAllTuples(t *testing.T) {
	hf := newTestHeap(t)
	want := map[int32]bool{}
	for i := int32(0); i < 50; i++ {
		_, err := hf.InsertTuple(tupleWithInt(i))
		require.NoError(t, err)
		want[i] = true
	}

	scanner := NewSequentialScanner(hf)
	got := map[int32]bool{}
	for {
		_, tuple, ok, err := scanner.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		key, err := ExtractInt32(tuple, 0)
		require.NoError(t, err)
		got[key] = true
	}
	require.Equal(t, want, got)
}

func TestExtractInt32OutOfRange(t *testing.T) {
	_, err := ExtractInt32([]byte{1, 2, 3}, 0)
	require.Error(t, err)
}
