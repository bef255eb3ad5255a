package decode

// The service names the reference discriminator "type" on some endpoints and
// "objectRefType" on others.
const (
	typeField    = "type"
	refTypeField = "objectRefType"
)

// Reconcile walks a generic JSON tree (as produced by unmarshalling into
// any) and makes every object that carries one discriminator field carry
// both. Objects that already have both are left alone, even when the values
// differ. The tree is modified in place and returned.
func Reconcile(node any) any {
	switch n := node.(type) {
	case map[string]any:
		t, hasType := n[typeField]
		rt, hasRefType := n[refTypeField]
		switch {
		case hasType && !hasRefType:
			n[refTypeField] = t
		case hasRefType && !hasType:
			n[typeField] = rt
		}
		for k, v := range n {
			n[k] = Reconcile(v)
		}
	case []any:
		for i, v := range n {
			n[i] = Reconcile(v)
		}
	}
	return node
}
