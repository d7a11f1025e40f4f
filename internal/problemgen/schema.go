package problemgen

import "github.com/abhisek/mathsheet/internal/llm"

// The schemas below validate single records after lenient parsing. They
// only insist on what the worksheet cannot do without; everything else
// is optional and nullable because models are inconsistent about both.
// Scalars that a model tends to emit as numbers or quoted booleans are
// accepted here and coerced by flexText and flexBool on decode.

var idDef = map[string]any{
	"type": []any{"string", "integer", "null"},
}

var textDef = map[string]any{
	"type": []any{"string", "number"},
}

var nullableText = map[string]any{
	"type": []any{"string", "number", "null"},
}

var nullableString = map[string]any{
	"type": []any{"string", "null"},
}

var flagDef = map[string]any{
	"type": []any{"boolean", "string", "number", "null"},
}

// TopicSchema describes one topic record from analysis.
var TopicSchema = &llm.Schema{
	Name:        "worksheet-topic",
	Description: "A curriculum topic suitable for a worksheet section",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": idDef,
			"name": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"description": nullableString,
		},
		"required": []any{"name"},
	},
}

// SubQuestionSchema describes one lettered part. Parts are validated one
// at a time so a bad part never takes its question down with it.
var SubQuestionSchema = &llm.Schema{
	Name:        "worksheet-subquestion",
	Description: "A lettered part of a worksheet question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":         idDef,
			"label":      nullableText,
			"content":    textDef,
			"hasImage":   flagDef,
			"pythonCode": nullableString,
			"solution":   nullableText,
		},
		"required": []any{"content"},
	},
}

// QuestionSchema describes one generated question record. Items of parts
// are checked separately against SubQuestionSchema.
var QuestionSchema = &llm.Schema{
	Name:        "worksheet-question",
	Description: "A worksheet question with optional lettered parts and plotting code",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":         idDef,
			"topicId":    idDef,
			"content":    textDef,
			"difficulty": nullableString,
			"hasImage":   flagDef,
			"pythonCode": nullableString,
			"solution":   nullableText,
			"parts": map[string]any{
				"type": []any{"array", "null"},
			},
		},
		"required": []any{"content"},
	},
}
