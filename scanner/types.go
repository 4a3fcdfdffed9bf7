package scanner

import (
	"imagededupe/types"
)

// Loader decodes one file into an ImageRecord
type Loader interface {
	LoadImage(path string) (*types.ImageRecord, error)
}

// CatalogResult holds the decoded records in traversal order
type CatalogResult struct {
	Records  []*types.ImageRecord
	Failures int
}
