package btree

import "errors"

// Sentinel errors the core raises, grounded on DaemonDB's exception-per-
// condition style but expressed as errors.New sentinels wrapped with
// fmt.Errorf at the call site, the idiom the rest of this module follows.
var (
	// ErrBadIndexInfo is raised when an existing index file's meta page
	// does not match the arguments Open was called with.
	ErrBadIndexInfo = errors.New("btree: index file metadata does not match open arguments")

	// ErrBadOpcodes is raised when StartScan is called with operators
	// outside the permitted {GT,GTE} / {LT,LTE} sets.
	ErrBadOpcodes = errors.New("btree: scan operator not permitted")

	// ErrBadScanrange is raised when StartScan's low bound exceeds its
	// high bound.
	ErrBadScanrange = errors.New("btree: low bound exceeds high bound")

	// ErrNoSuchKeyFound is raised when StartScan cannot position on any
	// qualifying key.
	ErrNoSuchKeyFound = errors.New("btree: no qualifying key found")

	// ErrScanNotInitialized is raised when ScanNext or EndScan is called
	// without an active scan.
	ErrScanNotInitialized = errors.New("btree: scan not initialized")

	// ErrIndexScanCompleted is raised when ScanNext is called after the
	// qualifying range has been exhausted.
	ErrIndexScanCompleted = errors.New("btree: scan completed")
)
