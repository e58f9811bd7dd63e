// Package bptree is the on-disk B+-tree storage core: a paged,
// single-file key-value engine whose keys are uint32 and whose values are
// arbitrary byte payloads. It owns the search/insert path, node splitting,
// and the high-key maintenance protocol that keeps every internal node's
// last divider equal to the largest key reachable through it.
//
// Deletion, range scans, point lookups, concurrency control, crash
// recovery, and free-page reuse are not implemented.
package bptree

import (
	"context"
	"errors"

	"github.com/btree-query-bench/simpledataengine/dbms/index/btpage"
	"github.com/btree-query-bench/simpledataengine/dbms/pager"
	"github.com/btree-query-bench/simpledataengine/engineerr"
)

// Config configures how a Handle opens its backing file. CacheSizeMB is
// currently ignored (the pager has no page cache); Create is currently
// implicitly true (Open always creates a missing file).
type Config struct {
	CacheSizeMB uint32
	Create      bool
}

// DefaultConfig returns the zero-value-equivalent configuration: no cache
// budget tracked, creation implicitly allowed.
func DefaultConfig() Config {
	return Config{CacheSizeMB: 0, Create: true}
}

// Handle is an open database: the single public entry point for inserting
// into the B+-tree. It owns the pager exclusively and is not safe for
// concurrent use by multiple goroutines.
type Handle struct {
	pager *pager.Pager
}

// Open opens or creates the database file at path and ensures it has a
// root node, bootstrapping a fresh empty leaf into the metapage if none
// exists yet.
func Open(path string, config Config) (*Handle, error) {
	pg, err := pager.Open(path)
	if err != nil {
		return nil, err
	}
	h := &Handle{pager: pg}
	if err := h.ensureRoot(); err != nil {
		return nil, err
	}
	return h, nil
}

// Close releases the underlying file handle.
func (h *Handle) Close() error { return h.pager.Close() }

// ensureRoot performs root initialization: if the node header
// at the metapage's node offset cannot be decoded as a valid node, a fresh
// empty leaf is written there. This covers both a brand new file (only the
// default database header on disk yet) and a file whose database header was
// written without ever getting a root node.
func (h *Handle) ensureRoot() error {
	nodeBuf, err := h.readNodePayload(pager.MetapageID)
	if err != nil {
		if errors.Is(err, engineerr.ErrPageNotFound) {
			return h.writeFreshRootLeaf()
		}
		return err
	}
	if _, decErr := btpage.Sniff(nodeBuf); decErr != nil {
		return h.writeFreshRootLeaf()
	}
	return nil
}

func (h *Handle) writeFreshRootLeaf() error {
	metapageID := pager.MetapageID
	buf := pager.NewPayloadBuffer(&metapageID)
	leaf := btpage.NewLeaf(buf)
	_, err := h.pager.SavePage(leaf.Bytes(), &metapageID)
	return err
}

// readNodePayload returns the node-payload slice of pageID: for the
// metapage that is everything past the database header; for any other page
// it is the whole page.
func (h *Handle) readNodePayload(pageID uint32) ([]byte, error) {
	full, err := h.pager.ReadPage(pageID)
	if err != nil {
		return nil, err
	}
	if h.pager.IsMetapage(pageID) {
		return full[pager.HeaderBytes:], nil
	}
	return full, nil
}

// loadNode decodes the node at pageID, dispatching to leaf or internal
// based on its header.
func (h *Handle) loadNode(pageID uint32) (*PagedNode, error) {
	buf, err := h.readNodePayload(pageID)
	if err != nil {
		return nil, err
	}
	hdr, err := btpage.Sniff(buf)
	if err != nil {
		return nil, err
	}
	if hdr.Kind == btpage.KindLeaf {
		leaf, err := btpage.LoadLeaf(buf)
		if err != nil {
			return nil, err
		}
		return &PagedNode{PageID: pageID, Leaf: leaf}, nil
	}
	internal, err := btpage.LoadInternal(buf)
	if err != nil {
		return nil, err
	}
	return &PagedNode{PageID: pageID, Internal: internal}, nil
}

// persist writes pn's current bytes back through the pager at its own page id.
func (h *Handle) persist(pn *PagedNode) error {
	pageID := pn.PageID
	_, err := h.pager.SavePage(pn.Bytes(), &pageID)
	return err
}

// findLeafFor walks from the root down to the leaf that should contain key,
// recording every internal node it passes through (and the leaf itself) in
// a fresh Breadcrumbs.
func (h *Handle) findLeafFor(ctx context.Context, key uint32) (*Breadcrumbs, error) {
	bc := &Breadcrumbs{}
	pageID := h.pager.RootPageID()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pn, err := h.loadNode(pageID)
		if err != nil {
			return nil, err
		}
		if pn.IsLeaf() {
			bc.Push(pn)
			return bc, nil
		}
		bc.Push(pn)
		pageID = pn.Internal.ChildPageIDForKey(key)
	}
}
