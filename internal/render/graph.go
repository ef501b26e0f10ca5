package render

// Scene is the render-side graph the core adds proxies and overlays to.
type Scene interface {
	Add(n *Node)
	Remove(n *Node)
}

// Graph is a retained, unordered scene graph. Add and Remove are idempotent.
// It is mutated only by the frame loop.
type Graph struct {
	nodes    []*Node
	index    map[*Node]int
	version  uint64
	Lighting Lighting
	Shadows  bool
}

func NewGraph() *Graph {
	return &Graph{
		nodes:    make([]*Node, 0, 256),
		index:    make(map[*Node]int, 256),
		Lighting: ModeSolid.Lighting(),
		Shadows:  true,
	}
}

func (g *Graph) Add(n *Node) {
	if n == nil {
		return
	}
	if _, ok := g.index[n]; ok {
		return
	}
	g.index[n] = len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.version++
}

func (g *Graph) Remove(n *Node) {
	i, ok := g.index[n]
	if !ok {
		return
	}
	last := len(g.nodes) - 1
	if i != last {
		g.nodes[i] = g.nodes[last]
		g.index[g.nodes[i]] = i
	}
	g.nodes[last] = nil
	g.nodes = g.nodes[:last]
	delete(g.index, n)
	g.version++
}

func (g *Graph) Contains(n *Node) bool {
	_, ok := g.index[n]
	return ok
}

func (g *Graph) Len() int { return len(g.nodes) }

// Version changes whenever membership changes.
func (g *Graph) Version() uint64 { return g.version }

// Each visits every node. fn must not add or remove nodes.
func (g *Graph) Each(fn func(*Node)) {
	for _, n := range g.nodes {
		fn(n)
	}
}

// CountKind returns how many nodes of kind k are in the graph.
func (g *Graph) CountKind(k NodeKind) int {
	c := 0
	for _, n := range g.nodes {
		if n.Kind == k {
			c++
		}
	}
	return c
}
