// Package metadata is the catalog of model IDs offered in pickers.
package metadata

import "slices"

// Capability says which endpoint a model is used with.
type Capability string

const (
	CapabilityChat  Capability = "chat"
	CapabilityImage Capability = "image"
)

type Model struct {
	ID       string
	Label    string
	Provider string
	Caps     []Capability
}

func (m Model) Supports(c Capability) bool { return slices.Contains(m.Caps, c) }

// Models lists known models. Any other ID can still be typed in.
var Models = []Model{
	{ID: "nano-banana-2", Label: "Nano Banana 2", Provider: "openai", Caps: []Capability{CapabilityChat, CapabilityImage}},
	{ID: "gpt-image-1", Label: "GPT Image 1", Provider: "openai", Caps: []Capability{CapabilityImage}},
	{ID: "gpt-image-1-mini", Label: "GPT Image 1 mini", Provider: "openai", Caps: []Capability{CapabilityImage}},
	{ID: "gpt-4o-mini", Label: "GPT-4o mini", Provider: "openai", Caps: []Capability{CapabilityChat}},
	{ID: "gpt-4o", Label: "GPT-4o", Provider: "openai", Caps: []Capability{CapabilityChat}},
	{ID: "gemini-3-flash-preview", Label: "Gemini 3 Flash (preview)", Provider: "gemini", Caps: []Capability{CapabilityChat}},
	{ID: "gemini-3-pro-preview", Label: "Gemini 3 Pro (preview)", Provider: "gemini", Caps: []Capability{CapabilityChat}},
}

// IDs returns the model IDs supporting c, in catalog order.
func IDs(c Capability) []string {
	var out []string
	for _, m := range Models {
		if m.Supports(c) {
			out = append(out, m.ID)
		}
	}
	return out
}

// ProviderIDs returns the chat model IDs for one provider.
func ProviderIDs(provider string) []string {
	var out []string
	for _, m := range Models {
		if m.Provider == provider && m.Supports(CapabilityChat) {
			out = append(out, m.ID)
		}
	}
	return out
}

// Lookup finds a model by ID.
func Lookup(id string) (Model, bool) {
	i := slices.IndexFunc(Models, func(m Model) bool { return m.ID == id })
	if i < 0 {
		return Model{}, false
	}
	return Models[i], true
}
