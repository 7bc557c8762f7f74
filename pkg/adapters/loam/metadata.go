package loam

// ProblemMetadata represents the frontmatter of a problem document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type ProblemMetadata struct {
	ID    string `json:"id" mapstructure:"id"`
	Title string `json:"title" mapstructure:"title"`

	Variables  []VariableMetadata   `json:"variables" mapstructure:"variables"`
	Hypotheses []HypothesisMetadata `json:"hypotheses" mapstructure:"hypotheses"`

	// Goal is the statement to prove.
	Goal string `json:"goal" mapstructure:"goal"`
}

// VariableMetadata declares one typed variable.
type VariableMetadata struct {
	Name string `json:"name" mapstructure:"name"`
	Type string `json:"type" mapstructure:"type"`
}

// HypothesisMetadata declares one named assumption.
type HypothesisMetadata struct {
	Name       string `json:"name" mapstructure:"name"`
	Expression string `json:"expression" mapstructure:"expression"`
}
