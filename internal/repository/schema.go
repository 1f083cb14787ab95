package repository

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const questionSchemaURL = "question.schema.json"

// questionSchemaJSON describes one record of a question bank file.
const questionSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["enunciado", "opciones", "respuesta_correcta"],
  "properties": {
    "id": {"type": ["string", "integer"]},
    "enunciado": {"type": "string", "minLength": 1},
    "opciones": {
      "type": "array",
      "minItems": 2,
      "uniqueItems": true,
      "items": {"type": "string", "minLength": 1}
    },
    "respuesta_correcta": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    },
    "clasificacion": {"type": ["string", "null"]},
    "image": {"type": ["string", "null"]},
    "explicacion_openai": {"type": ["string", "null"]},
    "concept_to_study": {"type": ["string", "null"]}
  }
}`

var questionSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(questionSchemaURL, strings.NewReader(questionSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add question schema: %w", err)
	}
	schema, err := compiler.Compile(questionSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile question schema: %w", err)
	}
	return schema, nil
})
