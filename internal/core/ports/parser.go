package ports

import "go.trai.ch/wdlcache/internal/core/domain"

// Parser turns document text into the declarations the caches are built from.
//
//go:generate mockgen -source=parser.go -destination=mocks/mock_parser.go -package=mocks
type Parser interface {
	// Parse returns the declarations of the document identified by uri.
	Parse(uri string, content []byte) (*domain.Document, error)
}
