package nav

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/meridian-saas/meridian/internal/shared"
)

// Normalize validates a payload against the node schema and fills in
// defaults (missing node ids, current schema version). It upgrades
// older schema versions first and returns the normalized copy.
func Normalize(p Payload) (Payload, error) {
	upgraded, err := Upgrade(p)
	if err != nil {
		return Payload{}, err
	}
	out := upgraded.Clone()
	for i := range out.Items {
		if err := normalizeNode(&out.Items[i], false); err != nil {
			return Payload{}, err
		}
	}
	return out, nil
}

func normalizeNode(n *Node, nested bool) error {
	if strings.TrimSpace(n.Label) == "" && n.Type != NodeDivider {
		return fmt.Errorf("%w: node label is required", shared.ErrValidation)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	switch n.Type {
	case NodeLink:
		if strings.TrimSpace(n.Route) == "" {
			return fmt.Errorf("%w: link node %q requires a route", shared.ErrValidation, n.Label)
		}
	case NodeExternal:
		if strings.TrimSpace(n.URL) == "" {
			return fmt.Errorf("%w: external node %q requires a url", shared.ErrValidation, n.Label)
		}
	case NodeDivider:
		// Dividers carry no target.
	case NodeDropdown:
		if nested {
			return fmt.Errorf("%w: dropdown nodes cannot be nested", shared.ErrValidation)
		}
		if len(n.Children) == 0 {
			return fmt.Errorf("%w: dropdown node %q requires children", shared.ErrValidation, n.Label)
		}
		for i := range n.Children {
			if err := normalizeNode(&n.Children[i], true); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unknown node type %q", shared.ErrValidation, n.Type)
	}
	if n.Permission != "" && !shared.KnownPermission(n.Permission) {
		return fmt.Errorf("%w: unknown permission %q on node %q", shared.ErrValidation, n.Permission, n.Label)
	}
	return nil
}
