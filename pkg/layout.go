package pkg

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type LayoutOption struct {
	NodeWidth  float64
	NodeHeight float64
	HSpacing   float64
	VSpacing   float64
	Origin     Point
}

func DefaultLayoutOption() LayoutOption {
	return LayoutOption{
		NodeWidth:  250,
		NodeHeight: 100,
		HSpacing:   50,
		VSpacing:   120,
		Origin:     Point{X: 50, Y: 30},
	}
}

// Layout places each node's children in one row centred under it. The
// result maps pid to the top-left corner of its box; y grows downwards.
func Layout(roots []*TreeNode, opt LayoutOption) map[int32]Point {
	pos := map[int32]Point{}
	x := opt.Origin.X
	for _, root := range roots {
		place(root, x, opt.Origin.Y, opt, pos)
		x += opt.NodeWidth + opt.HSpacing
	}
	return pos
}

func place(n *TreeNode, x, y float64, opt LayoutOption, pos map[int32]Point) {
	if _, ok := pos[n.Pid]; ok {
		return
	}
	pos[n.Pid] = Point{X: x, Y: y}
	step := opt.NodeWidth + opt.HSpacing
	childX := x - float64(len(n.Children)-1)*step/2
	for _, c := range n.Children {
		place(c, childX, y+opt.NodeHeight+opt.VSpacing, opt, pos)
		childX += step
	}
}
