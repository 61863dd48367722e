package config

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

var rootSchema *jsonschema.Schema

func init() {
	js, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		panic(err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft2020)
	if err := compiler.AddResource("schema.json", js); err != nil {
		panic(err)
	}

	rootSchema, err = compiler.Compile("schema.json")
	if err != nil {
		panic(err)
	}
}

// Schema returns the JSON schema config files are validated against.
func Schema() []byte {
	return schemaJSON
}

// Validate checks a decoded config document against the schema.
func Validate(doc interface{}) error {
	return rootSchema.Validate(doc)
}

func decodeDocument(format string, data []byte) (interface{}, error) {
	var doc interface{}
	switch format {
	case "json":
		return jsonschema.UnmarshalJSON(bytes.NewReader(data))
	case "yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case "toml":
		var m map[string]interface{}
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		doc = m
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return doc, nil
}
