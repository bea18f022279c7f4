package multimethods

import (
	"fmt"
	"io"

	"github.com/emicklei/dot"
)

// Visualize writes the class graph and the functions declared on it in Graphviz format.
// Edges point from derived classes to their bases; dashed edges link functions to their parameters.
func (r *Registry) Visualize(w io.Writer) error {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "BT")

	nodes := make(map[ClassID]dot.Node)
	getNode := func(c *Class) dot.Node {
		if node, ok := nodes[c.id]; ok {
			return node
		}
		node := g.Node(fmt.Sprintf("class%d", c.id)).Label(c.String())
		if c.Abstract {
			node.Attr("style", "dashed")
		}
		nodes[c.id] = node
		return node
	}

	for c := range r.AllClasses() {
		node := getNode(c)
		for _, base := range c.bases {
			g.Edge(node, getNode(base))
		}
	}

	for f := range r.AllFunctions() {
		node := g.Node(fmt.Sprintf("function%d", f.id)).
			Label(f.name).
			Attr("shape", "box")
		for i, c := range f.vargs {
			g.Edge(node, getNode(c)).
				Attr("style", "dashed").
				Attr("label", fmt.Sprintf("%d", i))
		}
	}

	if _, err := io.WriteString(w, g.String()); err != nil {
		return we(err)
	}
	return nil
}
