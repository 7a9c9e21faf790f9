package registry

import "github.com/aretw0/whiteboard/pkg/domain"

var colorEnum = []any{"red", "blue", "green", "yellow"}

func object(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		req := make([]any, len(required))
		for i, r := range required {
			req[i] = r
		}
		schema["required"] = req
	}
	return schema
}

func str(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

// Default returns the fixed whiteboard tool catalog.
func Default() *Registry {
	r := NewRegistry()

	r.Register(domain.ToolDefinition{
		Name:        NameLogMessage,
		Description: "Log a message to the host console.",
		Parameters: object(map[string]any{
			"message": str("The message to log to the console."),
		}, "message"),
	}, Variant[LogMessage]())

	r.Register(domain.ToolDefinition{
		Name:        NameGetWhiteboard,
		Description: "Get the current state of the whiteboard with all clusters and cards.",
		Parameters:  object(map[string]any{}),
	}, Variant[GetWhiteboard]())

	r.Register(domain.ToolDefinition{
		Name:        NameAddCard,
		Description: "Add a new card to the whiteboard. Cards are displayed as colored stickers with text.",
		Parameters: object(map[string]any{
			"id": str("Unique identifier for the card"),
			"color": map[string]any{
				"type":        "string",
				"enum":        colorEnum,
				"description": "Color of the card",
			},
			"text":    str("Short text to display on the card (e.g., name, label, concept)"),
			"cluster": str(`Optional cluster ID to add the card to. Defaults to "default" if not specified.`),
		}, "id", "color", "text"),
	}, Variant[AddCard]())

	r.Register(domain.ToolDefinition{
		Name:        NameUpdateCard,
		Description: "Update a card on the whiteboard. Can set/update the tag or move the card to a different cluster.",
		Parameters: object(map[string]any{
			"id":      str("ID of the card to update"),
			"tag":     str("Emoji tag to add/update on the card (e.g., 🔥, 💡, 🛑)"),
			"cluster": str("Cluster ID to move the card to"),
		}, "id"),
	}, Variant[UpdateCard]())

	r.Register(domain.ToolDefinition{
		Name:        NameRemoveCard,
		Description: "Remove a card from the whiteboard.",
		Parameters: object(map[string]any{
			"id": str("ID of the card to remove"),
		}, "id"),
	}, Variant[RemoveCard]())

	r.Register(domain.ToolDefinition{
		Name:        NameRemoveCluster,
		Description: "Remove an entire cluster from the whiteboard.",
		Parameters: object(map[string]any{
			"id": str("ID of the cluster to remove"),
		}, "id"),
	}, Variant[RemoveCluster]())

	r.Register(domain.ToolDefinition{
		Name:        NameSetCaption,
		Description: "Set the single-line caption shown under the whiteboard.",
		Parameters: object(map[string]any{
			"text": str("Caption text, one line"),
		}, "text"),
	}, Variant[SetCaption]())

	r.Register(domain.ToolDefinition{
		Name:        NameClearWhiteboard,
		Description: "Clear the entire whiteboard, removing all clusters and cards. Use this to start fresh.",
		Parameters:  object(map[string]any{}),
	}, Variant[ClearWhiteboard]())

	return r
}
