package domain

// ResolutionParams are the per-invocation inputs of a resolution besides the descriptor.
type ResolutionParams struct {
	Selections      []Selection   `json:"selections,omitempty"`
	Facts           PlatformFacts `json:"facts"`
	Inventory       Inventory     `json:"inventory,omitempty"`
	Head            bool          `json:"head,omitempty"`
	BuildFromSource bool          `json:"build_from_source,omitempty"`
}
