package tree

// RewriteFn maps a node to its replacement. Returning the input leaves
// the node in place.
type RewriteFn func(*Node) *Node

// Rewrite walks the expression tree bottom-up and applies fn to every
// node, replacing children before their parents. The bottom-up order
// matters: by the time a call node is offered, its foldable arguments
// have already been replaced with literals.
func Rewrite(n *Node, fn RewriteFn) *Node {
	if n == nil {
		return nil
	}
	for i, p := range n.Params {
		n.Params[i] = Rewrite(p, fn)
	}
	if n.Value != nil && n.Kind != KindConstDecl && n.Kind != KindUnitDecl {
		n.Value = Rewrite(n.Value, fn)
	}
	return fn(n)
}
