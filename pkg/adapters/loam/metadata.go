package loam

// CapabilityMetadata is the frontmatter of one capability document.
// The document body, when present, is used as the description.
type CapabilityMetadata struct {
	ID          string `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Parent      string `json:"parent" mapstructure:"parent"`
	Level       int    `json:"level" mapstructure:"level"`
	Category    string `json:"category" mapstructure:"category"`
	Domain      string `json:"domain" mapstructure:"domain"`
	Description string `json:"description" mapstructure:"description"`

	// Order positions a capability among its siblings; ties fall back to the id.
	Order int `json:"order" mapstructure:"order"`
}
