package nav

import (
	"fmt"

	"github.com/meridian-saas/meridian/internal/shared"
)

// Upgrade migrates a payload to the current schema version. Version 1
// payloads lack the visible flag, default untyped nodes to links, and
// used "separator" for dividers. Unknown versions are rejected.
func Upgrade(p Payload) (Payload, error) {
	switch p.Version {
	case SchemaVersion:
		return p, nil
	case 0, 1:
		out := p.Clone()
		out.Version = SchemaVersion
		upgradeNodes(out.Items)
		return out, nil
	default:
		return Payload{}, fmt.Errorf("%w: unsupported payload schema version %d", shared.ErrValidation, p.Version)
	}
}

func upgradeNodes(nodes []Node) {
	for i := range nodes {
		if nodes[i].Type == "" {
			nodes[i].Type = NodeLink
		}
		if nodes[i].Type == "separator" {
			nodes[i].Type = NodeDivider
		}
		nodes[i].Visible = true
		upgradeNodes(nodes[i].Children)
	}
}
