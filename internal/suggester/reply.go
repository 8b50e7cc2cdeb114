package suggester

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/rocketscienceinc/tictactoe-llm/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-llm/internal/entity"
)

const positionField = "position"

type indexReply struct {
	Position int `mapstructure:"position"`
}

type pairReply struct {
	Position []int `mapstructure:"position"`
}

// ParseSuggestion turns the model's JSON answer into a cell index.
// The answer must match the schema exactly: one "position" field, integers only.
// Range checks on the resulting index are left to the caller.
func ParseSuggestion(raw string, schema Schema) (int, error) {
	payload, err := decodeObject(raw)
	if err != nil {
		return -1, err
	}

	position, ok := payload[positionField]
	if !ok || containsNull(position) {
		return -1, fmt.Errorf("%w: missing %q", apperror.ErrMalformedResponse, positionField)
	}

	switch schema {
	case SchemaIndex:
		var reply indexReply
		if err = decodeStrict(payload, &reply); err != nil {
			return -1, err
		}

		return reply.Position, nil
	case SchemaPair:
		var reply pairReply
		if err = decodeStrict(payload, &reply); err != nil {
			return -1, err
		}

		if len(reply.Position) != 2 {
			return -1, fmt.Errorf("%w: position must hold 2 integers, got %d", apperror.ErrMalformedResponse, len(reply.Position))
		}

		index, err := entity.CellIndex(reply.Position[0], reply.Position[1])
		if err != nil {
			return -1, fmt.Errorf("%w: %w", apperror.ErrInvalidSuggestion, err)
		}

		return index, nil
	default:
		return -1, fmt.Errorf("%w: %q", ErrUnknownSchema, schema)
	}
}

// decodeObject reads exactly one JSON object. Repeated keys and anything after
// the closing brace are rejected.
func decodeObject(raw string) (map[string]any, error) {
	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()

	if tok, err := decoder.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("%w: reply is not an object", apperror.ErrMalformedResponse)
	}

	payload := make(map[string]any)
	for decoder.More() {
		tok, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedResponse, err)
		}

		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected token %v", apperror.ErrMalformedResponse, tok)
		}

		if _, seen := payload[key]; seen {
			return nil, fmt.Errorf("%w: duplicate field %q", apperror.ErrMalformedResponse, key)
		}

		var value any
		if err = decoder.Decode(&value); err != nil {
			return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedResponse, err)
		}

		payload[key] = value
	}

	if _, err := decoder.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedResponse, err)
	}

	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after reply", apperror.ErrMalformedResponse)
	}

	return payload, nil
}

// decodeStrict rejects unknown and unset fields. json.Number values only convert
// to int when they are whole numbers, so nothing is rounded or truncated.
func decodeStrict(payload map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		ErrorUnset:  true,
		Result:      out,
	})
	if err != nil {
		return fmt.Errorf("could not build decoder: %w", err)
	}

	if err = decoder.Decode(payload); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrMalformedResponse, err)
	}

	return nil
}

// mapstructure decodes null to the zero value, which would read as cell 0.
func containsNull(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case []any:
		for _, item := range v {
			if containsNull(item) {
				return true
			}
		}
	}

	return false
}
