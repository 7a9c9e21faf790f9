package loam

// PromptMetadata is the frontmatter of a prompt profile document.
type PromptMetadata struct {
	ID          string `json:"id" mapstructure:"id"`
	Description string `json:"description" mapstructure:"description"`

	// Model overrides the configured model name when the profile is selected.
	Model string `json:"model,omitempty" mapstructure:"model"`

	// MaxSteps overrides the automatic continuation limit. Zero keeps the default.
	MaxSteps int `json:"max_steps,omitempty" mapstructure:"max_steps"`
}

// Profile is a resolved prompt profile: its metadata and the system prompt body.
type Profile struct {
	Name     string
	Metadata PromptMetadata
	Prompt   string
}
