package canvas

// earcut triangulates a simple polygon (optionally with holes) given as a
// flattened vertex list plus the vertex index each hole ring starts at,
// mirroring the classic ear-clipping-with-hole-bridging algorithm: holes
// are first spliced into the outer ring via a bridge edge to a mutually
// visible vertex, then the resulting simple ring is ear-clipped directly.
//
// Returns false (no triangles) if the outer ring degenerates to fewer
// than 3 distinct usable vertices.
func earcut(points []Point, holeIndices []int) ([][3]Point, bool) {
	if len(points) < 3 {
		return nil, false
	}

	outerEnd := len(points)
	if len(holeIndices) > 0 {
		outerEnd = holeIndices[0]
	}
	outerNode := linkedList(points, 0, outerEnd)
	if outerNode == nil {
		return nil, false
	}

	if len(holeIndices) > 0 {
		outerNode = eliminateHoles(points, holeIndices, outerNode)
	}

	var triangles [][3]Point
	earcutLinked(outerNode, &triangles)
	if len(triangles) == 0 {
		return nil, false
	}
	return triangles, true
}

type node struct {
	pt         Point
	prev, next *node
}

// linkedList builds a circular doubly linked list from points[start:end],
// dropping the last vertex when it repeats the first (a closed ring), and
// returns one of its nodes.
func linkedList(points []Point, start, end int) *node {
	var last *node
	for i := start; i < end; i++ {
		last = insertNode(points[i], last)
	}
	if last != nil && last.pt == last.next.pt {
		removeNode(last)
		last = last.next
	}
	return last
}

func insertNode(pt Point, last *node) *node {
	n := &node{pt: pt}
	if last == nil {
		n.prev = n
		n.next = n
	} else {
		n.next = last.next
		n.prev = last
		last.next.prev = n
		last.next = n
	}
	return n
}

func removeNode(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

// area returns twice the signed area of triangle (p, q, r).
func area(p, q, r Point) int {
	return (q.Y-p.Y)*(r.X-q.X) - (q.X-p.X)*(r.Y-q.Y)
}

func pointInTriangle(ax, ay, bx, by, cx, cy, px, py int) bool {
	return (cx-px)*(ay-py)-(ax-px)*(cy-py) >= 0 &&
		(ax-px)*(by-py)-(bx-px)*(ay-py) >= 0 &&
		(bx-px)*(cy-py)-(cx-px)*(by-py) >= 0
}

// isEar reports whether the triangle formed by ear's previous, self, and
// next vertex contains no other polygon vertex, so it can be safely cut.
func isEar(ear *node) bool {
	a, b, c := ear.prev.pt, ear.pt, ear.next.pt
	if area(a, b, c) >= 0 {
		return false // reflex or collinear, not a valid ear
	}

	p := ear.next.next
	for p != ear.prev {
		if pointInTriangle(a.X, a.Y, b.X, b.Y, c.X, c.Y, p.pt.X, p.pt.Y) &&
			area(p.prev.pt, p.pt, p.next.pt) >= 0 {
			return false
		}
		p = p.next
	}
	return true
}

// earcutLinked repeatedly clips ears from the ring starting at ear until
// fewer than 3 vertices remain.
func earcutLinked(ear *node, triangles *[][3]Point) {
	if ear == nil {
		return
	}

	stop := ear
	guard := 0
	maxIter := countNodes(ear)*countNodes(ear) + 16

	for ear.prev != ear.next {
		guard++
		if guard > maxIter {
			// degenerate/self-intersecting input; stop rather than loop.
			return
		}

		prev, next := ear.prev, ear.next
		if isEar(ear) {
			*triangles = append(*triangles, [3]Point{prev.pt, ear.pt, next.pt})
			removeNode(ear)
			ear = next.next
			stop = next.next
			continue
		}

		ear = next
		if ear == stop {
			// no ear found this pass; collinear remainder, clip anyway to
			// make progress rather than fail the whole polygon.
			if countNodes(ear) < 3 {
				return
			}
			*triangles = append(*triangles, [3]Point{ear.prev.pt, ear.pt, ear.next.pt})
			removeNode(ear)
			ear = ear.next.next
			stop = ear
		}
	}
}

func countNodes(start *node) int {
	if start == nil {
		return 0
	}
	n := 1
	p := start.next
	for p != start {
		n++
		p = p.next
	}
	return n
}

// eliminateHoles splices each hole ring into outerNode via a bridge to a
// mutually visible outer vertex, returning the (possibly relinked) outer
// node to continue ear-clipping from.
func eliminateHoles(points []Point, holeIndices []int, outerNode *node) *node {
	ringArea := func(r []Point) (s int) {
		for i := 1; i+1 < len(r); i++ {
			s += area(r[0], r[i], r[i+1])
		}
		return s
	}
	queue := make([]*node, 0, len(holeIndices))
	for i, start := range holeIndices {
		end := len(points)
		if i+1 < len(holeIndices) {
			end = holeIndices[i+1]
		}
		// a hole must wind opposite to the outer ring for the bridged ring
		// to stay simple, so a hole wound the same way is reversed first.
		ring := points[start:end]
		if (ringArea(ring) > 0) == (ringArea(points[:holeIndices[0]]) > 0) {
			ring = append([]Point(nil), ring...)
			for a, b := 0, len(ring)-1; a < b; a, b = a+1, b-1 {
				ring[a], ring[b] = ring[b], ring[a]
			}
		}
		hole := linkedList(ring, 0, len(ring))
		if hole == nil {
			continue
		}
		queue = append(queue, leftmost(hole))
	}

	for _, hole := range queue {
		outerNode = eliminateHole(hole, outerNode)
	}
	return outerNode
}

func leftmost(start *node) *node {
	best := start
	p := start.next
	for p != start {
		if p.pt.X < best.pt.X || (p.pt.X == best.pt.X && p.pt.Y < best.pt.Y) {
			best = p
		}
		p = p.next
	}
	return best
}

// eliminateHole finds an outer vertex visible from hole's leftmost point
// and bridges the two rings by duplicating both endpoints, merging the
// hole into the outer ring as a single simple polygon.
func eliminateHole(hole, outerNode *node) *node {
	bridge := findHoleBridge(hole, outerNode)
	if bridge == nil {
		return outerNode
	}

	splitBridge(bridge, hole)
	return outerNode
}

// findHoleBridge locates the outer-ring vertex with the largest x not
// greater than hole's leftmost point that lies on a horizontal ray cast
// leftward from it, a direct (non-accelerated) scan suitable for the
// bounded polygon sizes a vector tile feature produces.
func findHoleBridge(hole, outerNode *node) *node {
	p := outerNode
	hx, hy := hole.pt.X, hole.pt.Y
	qx := -1 << 30
	var m *node

	stop := outerNode
	for {
		if hy <= maxInt(p.pt.Y, p.next.pt.Y) && hy >= minInt(p.pt.Y, p.next.pt.Y) && p.next.pt.Y != p.pt.Y {
			x := p.pt.X + (hy-p.pt.Y)*(p.next.pt.X-p.pt.X)/(p.next.pt.Y-p.pt.Y)
			if x <= hx && x > qx {
				qx = x
				if x == hx {
					m = p
				} else if p.pt.X < p.next.pt.X {
					m = p
				} else {
					m = p.next
				}
			}
		}
		p = p.next
		if p == stop {
			break
		}
	}
	return m
}

// splitBridge inserts the hole ring into the outer ring immediately
// after bridge, duplicating the bridge and hole-start vertices so the
// result is a single closed, simple ring.
func splitBridge(bridge, hole *node) *node {
	bridgeDup := &node{pt: bridge.pt}
	holeDup := &node{pt: hole.pt}

	bridgeNext := bridge.next
	holeEnd := hole.prev

	bridge.next = hole
	hole.prev = bridge

	holeEnd.next = holeDup
	holeDup.prev = holeEnd

	holeDup.next = bridgeDup
	bridgeDup.prev = holeDup

	bridgeDup.next = bridgeNext
	bridgeNext.prev = bridgeDup

	return bridge
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
