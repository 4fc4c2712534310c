// Package schema validates untrusted JSON documents — hierarchy descriptions
// and view parameter contracts — against JSON Schema before the kernel
// trusts their shape.
package schema

import "encoding/json"

// JSONSchema is a JSON Schema Draft 2020-12 document.
type JSONSchema map[string]any

// ToJSON serializes the schema document to indented JSON bytes.
func (j JSONSchema) ToJSON() ([]byte, error) {
	return json.MarshalIndent(j, "", "  ")
}
