package matcher

import (
	"errors"
	"fmt"
)

// ErrCatalogUnavailable indicates the catalog could not be asked, as opposed to answering with no hits
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// CatalogError records which query failed and why
type CatalogError struct {
	Query string
	Err   error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog query %q failed: %v", e.Query, e.Err)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

func (e *CatalogError) Is(target error) bool {
	return target == ErrCatalogUnavailable
}
