// Package pager owns the database file handle, the in-memory copy of the
// database header, and the mapping from a PageId to its byte offset on disk.
package pager

import (
	"io"
	"os"

	"github.com/btree-query-bench/simpledataengine/engineerr"
	"github.com/btree-query-bench/simpledataengine/wire"
)

const (
	// PageSize is the fixed size of every page on disk, including the metapage.
	PageSize = 4096

	// HeaderBytes is the number of bytes the database header occupies at the
	// front of page 0. The remaining PageSize-HeaderBytes bytes of page 0 hold
	// the root node's payload for as long as the root fits in a single leaf.
	HeaderBytes = 100

	// MetapagePayloadSize is the usable payload size of page 0, smaller than a
	// regular page's payload because the header shares the page.
	MetapagePayloadSize = PageSize - HeaderBytes

	// MetapageID is the reserved page id for the database header and, until the
	// first split, the root node.
	MetapageID uint32 = 0
)

var magicHeaderString = [18]byte{
	'S', 'i', 'm', 'p', 'l', 'e', ' ', 'D', 'a', 't', 'a', ' ', 'E', 'n', 'g', 'i', 'n', 'e',
}

// databaseHeader is the decoded form of page 0's first HeaderBytes bytes.
type databaseHeader struct {
	magic         [18]byte
	pageSizeBytes uint32
	pagesCount    uint32
	rootPageID    uint32
}

func defaultHeader() databaseHeader {
	return databaseHeader{
		magic:         magicHeaderString,
		pageSizeBytes: PageSize,
		pagesCount:    1,
		rootPageID:    0,
	}
}

func encodeHeader(buf []byte, h databaseHeader) {
	if len(buf) != HeaderBytes {
		panic("pager: header buffer must be exactly HeaderBytes long")
	}
	copy(buf[0:18], h.magic[:])
	wire.PutUint32At(buf, 18, h.pageSizeBytes)
	wire.PutUint32At(buf, 22, h.pagesCount)
	wire.PutUint32At(buf, 26, h.rootPageID)
	for i := 30; i < HeaderBytes; i++ {
		buf[i] = 0
	}
}

func decodeHeader(buf []byte) (databaseHeader, error) {
	if len(buf) < HeaderBytes {
		return databaseHeader{}, engineerr.New(engineerr.CorruptHeader, "short header: got %d bytes, want %d", len(buf), HeaderBytes)
	}
	var h databaseHeader
	copy(h.magic[:], buf[0:18])
	if h.magic != magicHeaderString {
		return databaseHeader{}, engineerr.New(engineerr.CorruptHeader, "magic string mismatch")
	}
	h.pageSizeBytes = wire.Uint32At(buf, 18)
	h.pagesCount = wire.Uint32At(buf, 22)
	h.rootPageID = wire.Uint32At(buf, 26)
	return h, nil
}

// Pager owns the exclusive file handle backing one database file.
type Pager struct {
	file   *os.File
	header databaseHeader
}

// Open opens or creates the file at path. A freshly created (zero-length)
// file gets the default header, written to the front of page 0 before Open
// returns; the rest of page 0 stays unwritten until a root node is saved
// there.
func Open(path string) (*Pager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, engineerr.Wrapf(err, "open %s", path)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, engineerr.Wrapf(err, "stat %s", path)
	}

	p := &Pager{file: f}
	if info.Size() == 0 {
		p.header = defaultHeader()
		if err := p.saveHeader(); err != nil {
			return nil, err
		}
		return p, nil
	}

	buf, err := p.readPageFromDisk(MetapageID)
	if err != nil {
		return nil, err
	}
	header, err := decodeHeader(buf[:HeaderBytes])
	if err != nil {
		return nil, err
	}
	p.header = header
	return p, nil
}

// RootPageID returns the page id the tree's root currently lives at.
func (p *Pager) RootPageID() uint32 { return p.header.rootPageID }

// PagesCount returns the total number of pages ever allocated, metapage included.
func (p *Pager) PagesCount() uint32 { return p.header.pagesCount }

// IsMetapage reports whether pageID addresses the metapage.
func (p *Pager) IsMetapage(pageID uint32) bool { return pageID == MetapageID }

// NewPayloadBuffer returns a zeroed buffer sized for the payload that belongs
// at pageID: MetapagePayloadSize for the metapage, PageSize otherwise.
func NewPayloadBuffer(pageID *uint32) []byte {
	if pageID != nil && *pageID == MetapageID {
		return make([]byte, MetapagePayloadSize)
	}
	return make([]byte, PageSize)
}

// SetRoot durably updates which page the tree's root lives at.
func (p *Pager) SetRoot(newRootPageID uint32) error {
	p.header.rootPageID = newRootPageID
	return p.saveHeader()
}

// ReadPage reads the full PageSize bytes at pageID's offset. A short read
// (including EOF) surfaces as engineerr.ErrPageNotFound.
func (p *Pager) ReadPage(pageID uint32) ([]byte, error) {
	return p.readPageFromDisk(pageID)
}

// SavePage persists payload, choosing among three modes based on pageID:
//
//   - pageID == nil: allocate a fresh page — pages_count is bumped and the
//     updated header is written before the new page's bytes. payload must be
//     exactly PageSize bytes.
//   - *pageID == MetapageID: payload must be exactly MetapagePayloadSize bytes;
//     it is prefixed with the current header and the whole page is rewritten.
//   - *pageID == k, k > 0: payload must be exactly PageSize bytes; page k is
//     overwritten in place.
//
// It returns the page id the payload was written at.
func (p *Pager) SavePage(payload []byte, pageID *uint32) (uint32, error) {
	switch {
	case pageID == nil:
		if len(payload) != PageSize {
			panic("pager: new page payload must be exactly PageSize bytes")
		}
		id := p.header.pagesCount
		p.header.pagesCount++
		if err := p.saveHeader(); err != nil {
			return 0, err
		}
		if err := p.writeFullPage(id, payload); err != nil {
			return 0, err
		}
		return id, nil

	case *pageID == MetapageID:
		if len(payload) != MetapagePayloadSize {
			panic("pager: metapage payload must be exactly MetapagePayloadSize bytes")
		}
		full := make([]byte, PageSize)
		encodeHeader(full[:HeaderBytes], p.header)
		copy(full[HeaderBytes:], payload)
		if err := p.writeFullPage(MetapageID, full); err != nil {
			return 0, err
		}
		return MetapageID, nil

	default:
		if len(payload) != PageSize {
			panic("pager: page payload must be exactly PageSize bytes")
		}
		if err := p.writeFullPage(*pageID, payload); err != nil {
			return 0, err
		}
		return *pageID, nil
	}
}

// Close releases the underlying file handle.
func (p *Pager) Close() error {
	return p.file.Close()
}

func (p *Pager) offset(id uint32) int64 {
	return int64(id) * PageSize
}

func (p *Pager) readPageFromDisk(id uint32) ([]byte, error) {
	buf := make([]byte, PageSize)
	_, err := p.file.ReadAt(buf, p.offset(id))
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, engineerr.New(engineerr.PageNotFound, "page %d", id)
		}
		return nil, engineerr.Wrapf(err, "read page %d", id)
	}
	return buf, nil
}

func (p *Pager) writeFullPage(id uint32, buf []byte) error {
	if len(buf) != PageSize {
		panic("pager: full page write must be exactly PageSize bytes")
	}
	if _, err := p.file.WriteAt(buf, p.offset(id)); err != nil {
		return engineerr.Wrapf(err, "write page %d", id)
	}
	return nil
}

// saveHeader rewrites only the HeaderBytes header region of page 0, leaving
// whatever root-node payload already lives in the remainder of the metapage
// untouched.
func (p *Pager) saveHeader() error {
	buf := make([]byte, HeaderBytes)
	encodeHeader(buf, p.header)
	if _, err := p.file.WriteAt(buf, 0); err != nil {
		return engineerr.Wrapf(err, "write header")
	}
	return nil
}
