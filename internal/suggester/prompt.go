package suggester

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-llm/internal/entity"
)

const promptTemplate = `You are playing tic-tac-toe as '%[1]s' against '%[2]s'. Play strategically.
You receive the board as a flat array of 9 cells in row-major order (index = row*3 + col); null marks an empty cell.

### Rules:
1. Make exactly one move as '%[1]s' on an empty cell.
2. If '%[2]s' has two in a line with the third cell empty, block it first.
3. Otherwise choose the best available position.
4. Reply only with JSON: %[3]s

### Example input:
[null,X,null,null,O,null,null,null,X]

### Example output:
%[4]s

### Current board:
%[5]s`

// BuildPrompt renders the instruction sent to the suggestion service.
func BuildPrompt(board entity.Board, side entity.Turn, schema Schema) string {
	replyShape := `{"position": [row, column]} with row and column in 0..2`
	example := `{"position": [0, 2]}`

	if schema == SchemaIndex {
		replyShape = `{"position": index} with index in 0..8`
		example = `{"position": 2}`
	}

	return fmt.Sprintf(promptTemplate, side, side.Opponent(), replyShape, example, board.PromptString())
}

// jsonSchema is the subset of JSON Schema understood by the service's "format" field.
type jsonSchema struct {
	Type       string                `json:"type"`
	Properties map[string]jsonSchema `json:"properties,omitempty"`
	Required   []string              `json:"required,omitempty"`
	Items      *jsonSchema           `json:"items,omitempty"`
	MinItems   *int                  `json:"minItems,omitempty"`
	MaxItems   *int                  `json:"maxItems,omitempty"`
	Minimum    *int                  `json:"minimum,omitempty"`
	Maximum    *int                  `json:"maximum,omitempty"`
}

func intPtr(v int) *int {
	return &v
}

// responseFormat declares the reply shape: an object with one required "position" field.
func responseFormat(schema Schema) jsonSchema {
	position := jsonSchema{
		Type:     "array",
		Items:    &jsonSchema{Type: "integer", Minimum: intPtr(0), Maximum: intPtr(2)},
		MinItems: intPtr(2),
		MaxItems: intPtr(2),
	}

	if schema == SchemaIndex {
		position = jsonSchema{Type: "integer", Minimum: intPtr(0), Maximum: intPtr(entity.BoardSize - 1)}
	}

	return jsonSchema{
		Type:       "object",
		Properties: map[string]jsonSchema{positionField: position},
		Required:   []string{positionField},
	}
}
