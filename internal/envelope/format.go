package envelope

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v2"

	"github.com/illarion/credseal/internal/crypto"
)

// Format is a text serialization of an envelope
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat resolves a format name; empty means JSON.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown envelope format %q", name)
	}
}

const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-04/schema#",
  "title": "credential envelope",
  "type": "object",
  "required": ["encrypted_username", "encrypted_password", "salt", "iv"],
  "additionalProperties": false,
  "properties": {
    "encrypted_username": {"type": "string", "pattern": "^[A-Za-z0-9+/]*={0,2}$"},
    "encrypted_password": {"type": "string", "pattern": "^[A-Za-z0-9+/]*={0,2}$"},
    "salt": {"type": "string", "minLength": 44, "maxLength": 44},
    "iv": {"type": "string", "minLength": 16, "maxLength": 16}
  }
}`

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
})

// Marshal serializes e in the given format. JSON output is indented.
func Marshal(e Envelope, format Format) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON, "":
		data, err = json.MarshalIndent(e, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(e)
	default:
		err = fmt.Errorf("unknown envelope format %q", format)
	}
	if err != nil {
		return nil, &crypto.Error{Kind: crypto.KindSerialization, Op: "marshal", Err: err}
	}
	return data, nil
}

// Unmarshal parses an envelope. JSON input must satisfy the envelope
// schema; YAML input must not contain unknown keys. Field contents are not
// decoded here, see Envelope.Decode.
func Unmarshal(data []byte, format Format) (Envelope, error) {
	var e Envelope
	switch format {
	case FormatJSON, "":
		if err := Validate(data); err != nil {
			return Envelope{}, err
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return Envelope{}, &crypto.Error{Kind: crypto.KindSerialization, Op: "unmarshal", Err: err}
		}
	case FormatYAML:
		if err := yaml.UnmarshalStrict(data, &e); err != nil {
			return Envelope{}, &crypto.Error{Kind: crypto.KindSerialization, Op: "unmarshal", Err: err}
		}
	default:
		return Envelope{}, &crypto.Error{
			Kind: crypto.KindSerialization,
			Op:   "unmarshal",
			Err:  fmt.Errorf("unknown envelope format %q", format),
		}
	}
	return e, nil
}

// Validate checks a JSON document against the envelope schema.
func Validate(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return &crypto.Error{Kind: crypto.KindSerialization, Op: "validate", Err: err}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &crypto.Error{Kind: crypto.KindSerialization, Op: "validate", Err: err}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			msgs = append(msgs, re.String())
		}
		return &crypto.Error{
			Kind: crypto.KindSerialization,
			Op:   "validate",
			Err:  fmt.Errorf("%s", strings.Join(msgs, "; ")),
		}
	}
	return nil
}
