package model

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	classifierSchema = mustCompileSchema("classifier.schema.json")
	labelsSchema     = mustCompileSchema("labels.schema.json")
)

func mustCompileSchema(name string) *jsonschema.Schema {
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(fmt.Sprintf("read embedded %s: %v", name, err))
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("add %s resource: %v", name, err))
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("compile %s: %v", name, err))
	}
	return sch
}

// validateDocument checks raw JSON against sch. Parse and validation
// failures both come back as a SchemaMismatchError for artifact.
func validateDocument(sch *jsonschema.Schema, artifact string, raw []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &SchemaMismatchError{Artifact: artifact, Reason: fmt.Sprintf("not valid json: %v", err)}
	}
	if err := sch.Validate(inst); err != nil {
		return &SchemaMismatchError{Artifact: artifact, Reason: err.Error()}
	}
	return nil
}
