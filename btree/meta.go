// Meta page persistence (C9): relation name, key attribute offset and
// type, and root page number. Grounded on DaemonDB's IndexMetaInfo
// (original_source/btree.h) and the teacher's WriteMetadata/ReadMetadata
// convention of a dedicated first page per file.
package btree

import (
	"encoding/binary"
	"fmt"

	"btreeidx/internal/page"
)

const (
	relationNameMaxLen = 19 // + 1 byte NUL terminator, matching original_source's char[20]

	metaPageNum page.Num = 1
	initialRoot page.Num = 2
)

// AttrType tags the datatype of the indexed attribute. Only Int32 is
// implemented; the field exists so the on-page format can grow without a
// layout break, per spec's non-goal on non-integer keys.
type AttrType int32

const (
	AttrInt32 AttrType = 0
)

type meta struct {
	relationName   string
	attrByteOffset int32
	attrType       AttrType
	rootPageNum    page.Num
}

func decodeMeta(pg *page.Page) *meta {
	nameBytes := pg.Data[0 : relationNameMaxLen+1]
	end := 0
	for end < len(nameBytes) && nameBytes[end] != 0 {
		end++
	}
	return &meta{
		relationName:   string(nameBytes[:end]),
		attrByteOffset: int32(binary.LittleEndian.Uint32(pg.Data[20:24])),
		attrType:       AttrType(binary.LittleEndian.Uint32(pg.Data[24:28])),
		rootPageNum:    page.Num(binary.LittleEndian.Uint32(pg.Data[28:32])),
	}
}

func encodeMeta(pg *page.Page, m *meta) error {
	if len(m.relationName) > relationNameMaxLen {
		return fmt.Errorf("btree: relation name %q exceeds %d bytes", m.relationName, relationNameMaxLen)
	}
	for i := range pg.Data[:32] {
		pg.Data[i] = 0
	}
	copy(pg.Data[0:relationNameMaxLen], m.relationName)
	binary.LittleEndian.PutUint32(pg.Data[20:24], uint32(m.attrByteOffset))
	binary.LittleEndian.PutUint32(pg.Data[24:28], uint32(m.attrType))
	binary.LittleEndian.PutUint32(pg.Data[28:32], uint32(m.rootPageNum))
	pg.Dirty = true
	return nil
}

// readMeta pins the meta page, decodes it, and unpins clean.
func (ix *Index) readMeta() (*meta, error) {
	pg, err := ix.bm.ReadPage(metaPageNum)
	if err != nil {
		return nil, fmt.Errorf("btree: read meta page: %w", err)
	}
	m := decodeMeta(pg)
	if err := ix.bm.UnpinPage(metaPageNum, false); err != nil {
		return nil, err
	}
	return m, nil
}

// writeMeta pins the meta page, overwrites it, and unpins dirty.
func (ix *Index) writeMeta(m *meta) error {
	pg, err := ix.bm.ReadPage(metaPageNum)
	if err != nil {
		return fmt.Errorf("btree: read meta page: %w", err)
	}
	if err := encodeMeta(pg, m); err != nil {
		ix.bm.UnpinPage(metaPageNum, false)
		return err
	}
	return ix.bm.UnpinPage(metaPageNum, true)
}

// updateRoot persists a new root page number, per C9.
func (ix *Index) updateRoot(newRoot page.Num) error {
	m, err := ix.readMeta()
	if err != nil {
		return err
	}
	m.rootPageNum = newRoot
	ix.root = newRoot
	return ix.writeMeta(m)
}
