package tile

// Geometry command IDs per the Mapbox Vector Tile spec v2.
const (
	cmdMoveTo    = 1
	cmdLineTo    = 2
	cmdClosePath = 7
)

// Point is a single tile-extent-space (conventionally [0, extent))
// coordinate.
type Point struct{ X, Y int32 }

// Ring is a closed sequence of points (a polygon ring, or a line/point
// geometry's own point list).
type Ring []Point

// decodeGeometry expands a packed MoveTo/LineTo/ClosePath command stream
// (zigzag-delta-encoded parameters) into one or more rings/paths.
func decodeGeometry(cmds []uint32) []Ring {
	var rings []Ring
	var cur Ring
	var x, y int32

	i := 0
	for i < len(cmds) {
		cmdInt := cmds[i]
		i++
		cmd := cmdInt & 0x7
		count := int(cmdInt >> 3)

		switch cmd {
		case cmdMoveTo:
			if len(cur) > 0 {
				rings = append(rings, cur)
			}
			cur = make(Ring, 0, count)
			for c := 0; c < count; c++ {
				if i+1 > len(cmds) {
					break
				}
				dx := zigzagDecode32(cmds[i])
				dy := zigzagDecode32(cmds[i+1])
				i += 2
				x += dx
				y += dy
				cur = append(cur, Point{X: x, Y: y})
			}
		case cmdLineTo:
			for c := 0; c < count; c++ {
				if i+1 > len(cmds) {
					break
				}
				dx := zigzagDecode32(cmds[i])
				dy := zigzagDecode32(cmds[i+1])
				i += 2
				x += dx
				y += dy
				cur = append(cur, Point{X: x, Y: y})
			}
		case cmdClosePath:
			if len(cur) > 0 {
				cur = append(cur, cur[0])
			}
		default:
			// unknown command: stop, keep whatever was decoded so far.
			i = len(cmds)
		}
	}
	if len(cur) > 0 {
		rings = append(rings, cur)
	}
	return rings
}

func zigzagDecode32(v uint32) int32 {
	return int32(v>>1) ^ -(int32(v & 1))
}
