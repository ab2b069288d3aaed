package openapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Validate checks doc against the OpenAPI 3.0 rules of kin-openapi.
// Only 3.0.x documents are checked; 3.1 documents are accepted as is.
func Validate(ctx context.Context, doc *Document) error {
	if !IsLegacy(doc.OpenAPI) {
		return nil
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("openapi: marshal document: %w", err)
	}

	loader := openapi3.NewLoader()
	loaded, err := loader.LoadFromData(data)
	if err != nil {
		return fmt.Errorf("openapi: load document: %w", err)
	}

	if err := loaded.Validate(ctx); err != nil {
		return fmt.Errorf("openapi: invalid document: %w", err)
	}

	return nil
}
