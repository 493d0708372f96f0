package nav

// PermissionChecker answers whether the current user holds a permission.
// Central admins use AllowAll.
type PermissionChecker func(permission string) bool

// AllowAll grants every permission. Central admins see everything.
func AllowAll(string) bool { return true }

// SetChecker builds a checker over a granted permission set.
func SetChecker(granted []string) PermissionChecker {
	set := make(map[string]struct{}, len(granted))
	for _, p := range granted {
		set[p] = struct{}{}
	}
	return func(permission string) bool {
		_, ok := set[permission]
		return ok
	}
}

// Filter prunes a payload down to what the user may see. A node is kept
// when it is visible and its permission is absent or granted. Dividers
// are always kept, and count as kept children; a dropdown is dropped
// only once it has no surviving children at all.
func Filter(p Payload, has PermissionChecker) Payload {
	out := p.Clone()
	out.Items = filterNodes(out.Items, has)
	return out
}

func filterNodes(nodes []Node, has PermissionChecker) []Node {
	kept := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if !n.Visible {
			continue
		}
		if n.Type == NodeDivider {
			kept = append(kept, n)
			continue
		}
		if n.Permission != "" && !has(n.Permission) {
			continue
		}
		if n.Type == NodeDropdown {
			n.Children = filterNodes(n.Children, has)
			if len(n.Children) == 0 {
				continue
			}
		}
		kept = append(kept, n)
	}
	return kept
}
