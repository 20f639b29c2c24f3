// Package fulltext maintains a bleve index over indexed documentation pages.
package fulltext

import "github.com/blevesearch/bleve/v2"

// Index is the subset of bleve.Index used by catalog snapshots and the offline exporter.
// Search takes an Index so hit conversion is tested against a mock without building a bleve index.
type Index interface {
	// Search executes a search request
	Search(req *bleve.SearchRequest) (*bleve.SearchResult, error)

	// DocCount returns the number of documents in the index
	DocCount() (uint64, error)

	// Close closes the index
	Close() error
}

// bleveIndex wraps a bleve.Index to implement our Index interface
type bleveIndex struct {
	index bleve.Index
}

// Wrap adapts a bleve.Index
func Wrap(index bleve.Index) Index {
	return &bleveIndex{index: index}
}

func (w *bleveIndex) Search(req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	return w.index.Search(req)
}

func (w *bleveIndex) DocCount() (uint64, error) {
	return w.index.DocCount()
}

func (w *bleveIndex) Close() error {
	return w.index.Close()
}
