package tape

// OrderedPositions returns every non-parking physical position of c in
// increasing logical order. If includeParking is true, each track's whole
// parking run (x ascending) is emitted once, immediately before the first
// position of that track in logical order; this is only meaningful when the caller has explicitly asked for parking-zone
// reads (spec section 3, "Ordered block list" invariant).
func (c Cartridge) OrderedPositions(includeParking bool) []Position {
	max := c.MaxLogical()
	out := make([]Position, 0, max)

	if !includeParking {
		for l := 0; l < max; l++ {
			p, err := c.LogicalToPhysical(l)
			if err != nil {
				continue
			}
			out = append(out, p)
		}
		return out
	}

	// Walk the whole physical grid and keep every cell, parking or not,
	// but still in ascending logical order for the non-parking cells: we
	// achieve this by walking logical order and, before each logical
	// cell, emitting any parking positions on that track not yet emitted.
	emittedParking := make(map[int]bool)
	for l := 0; l < max; l++ {
		p, err := c.LogicalToPhysical(l)
		if err != nil {
			continue
		}
		if !emittedParking[p.Track] {
			for x := c.ParkingStart(); x < c.ParkingEnd(); x++ {
				out = append(out, Position{Track: p.Track, X: x})
			}
			emittedParking[p.Track] = true
		}
		out = append(out, p)
	}
	return out
}
