// Package nav defines the navigation tree payload shared between the
// builder UI, the configuration store, and the resolution engine.
package nav

// NodeType discriminates the payload node variants.
type NodeType string

const (
	NodeLink     NodeType = "link"
	NodeDivider  NodeType = "divider"
	NodeExternal NodeType = "external"
	NodeDropdown NodeType = "dropdown"
)

// SchemaVersion is the payload schema version written by this release.
// Version 1 payloads predate the visible flag and are upgraded on read.
const SchemaVersion = 2

// Node is one entry in a navigation tree. Only dropdown nodes carry
// children, and those children may not be dropdowns themselves.
type Node struct {
	ID         string   `json:"id"`
	Type       NodeType `json:"type"`
	Label      string   `json:"label"`
	Icon       string   `json:"icon,omitempty"`
	Route      string   `json:"route,omitempty"`
	Permission string   `json:"permission,omitempty"`
	URL        string   `json:"url,omitempty"`
	Visible    bool     `json:"visible"`
	Children   []Node   `json:"children,omitempty"`
}

// Payload is the JSON document stored per configuration and exchanged
// with the builder.
type Payload struct {
	Items    []Node            `json:"items"`
	Layout   string            `json:"layout,omitempty"`
	Theme    string            `json:"theme,omitempty"`
	Version  int               `json:"version"`
	Branding map[string]string `json:"branding,omitempty"`
}

// Clone returns a deep copy of the payload.
func (p Payload) Clone() Payload {
	out := p
	out.Items = cloneNodes(p.Items)
	if p.Branding != nil {
		out.Branding = make(map[string]string, len(p.Branding))
		for k, v := range p.Branding {
			out.Branding[k] = v
		}
	}
	return out
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n
		out[i].Children = cloneNodes(n.Children)
	}
	return out
}
