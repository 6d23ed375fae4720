// Package validation checks JSON API payloads against embedded JSON schemas.
package validation

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	JobCreate = "job_create"
	JobPatch  = "job_patch"
)

// Error lists every schema violation of one payload.
type Error struct {
	Schema   string
	Problems []string
}

func (e *Error) Error() string {
	return "invalid payload: " + strings.Join(e.Problems, "; ")
}

var (
	compileOnce sync.Once
	compiled    map[string]*gojsonschema.Schema
	compileErr  error
)

func schemas() (map[string]*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled = map[string]*gojsonschema.Schema{}
		for _, name := range []string{JobCreate, JobPatch} {
			raw, err := schemaFS.ReadFile("schemas/" + name + ".json")
			if err != nil {
				compileErr = fmt.Errorf("read schema %s: %w", name, err)
				return
			}
			schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
			if err != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", name, err)
				return
			}
			compiled[name] = schema
		}
	})
	return compiled, compileErr
}

// Validate checks payload against the named schema. Malformed JSON and schema
// violations both come back as *Error.
func Validate(name string, payload []byte) error {
	all, err := schemas()
	if err != nil {
		return err
	}
	schema, ok := all[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return &Error{Schema: name, Problems: []string{"malformed JSON"}}
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		problems[i] = desc.Field() + ": " + desc.Description()
	}
	return &Error{Schema: name, Problems: problems}
}
