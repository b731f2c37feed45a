package hg

import (
	"encoding/json"
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// QueryCatalog evaluates a JSONPath expression against the stored catalog,
// e.g. `$.data[?(@.type == 'video')].id`.
func (s *HGService) QueryCatalog(catalogName, expr string) ([]any, error) {
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", expr, err)
	}

	catalog, err := s.databases.ReadCatalog(catalogName)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", catalogName, err)
	}

	// jp evaluates generic values, so the catalog is re-decoded from JSON.
	raw, err := json.Marshal(catalog)
	if err != nil {
		return nil, fmt.Errorf("encoding catalog: %w", err)
	}
	var root any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	return x.Get(root), nil
}
