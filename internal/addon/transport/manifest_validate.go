package transport

import (
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// manifestSchema describes the minimal shape a Manifest document must have
// before the core trusts it enough to install, expressed with kin-openapi
// (the teacher's own direct OpenAPI dependency, used elsewhere for its own
// v3 API surface) rather than hand-rolled field checks.
var manifestSchema = func() *openapi3.Schema {
	str := openapi3.NewStringSchema()
	arr := openapi3.NewArraySchema()
	arr.Items = openapi3.NewSchemaRef("", str)

	s := openapi3.NewObjectSchema()
	s.Properties = openapi3.Schemas{
		"id":        openapi3.NewSchemaRef("", str),
		"version":   openapi3.NewSchemaRef("", str),
		"name":      openapi3.NewSchemaRef("", str),
		"types":     openapi3.NewSchemaRef("", arr),
		"resources": openapi3.NewSchemaRef("", openapi3.NewArraySchema()),
	}
	s.Required = []string{"id", "version", "name", "types", "resources"}
	return s
}()

// ValidateManifestShape rejects a manifest document missing the fields
// every addon protocol client depends on, before the caller attempts to
// unmarshal it into types.Manifest. This guards against a malformed
// third-party addon producing a zero-value manifest that would silently
// support nothing (spec.md §4.2/§7 "Validation").
func ValidateManifestShape(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("manifest is not valid JSON: %w", err)
	}
	if err := manifestSchema.VisitJSON(doc); err != nil {
		return fmt.Errorf("manifest failed shape validation: %w", err)
	}
	return nil
}
