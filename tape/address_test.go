package tape

import "testing"

func TestRoundTripPhysicalToLogical(t *testing.T) {
	c := SC50

	for track := 0; track < c.Tracks; track++ {
		for _, x := range []int{0, 1, 2, c.ParkingStart() - 2, c.ParkingStart() - 1, c.ParkingEnd(), c.ParkingEnd() + 1, c.FramesPerTrack - 2, c.FramesPerTrack - 1} {
			p := Position{Track: track, X: x}
			if c.Classify(p) == Parking {
				continue
			}

			l, err := c.PhysicalToLogical(p)
			if err != nil {
				t.Fatalf("PhysicalToLogical(%v) error: %v", p, err)
			}

			got, err := c.LogicalToPhysical(l)
			if err != nil {
				t.Fatalf("LogicalToPhysical(%d) error: %v", l, err)
			}

			if got != p {
				t.Errorf("round trip mismatch: %v -> %d -> %v", p, l, got)
			}
		}
	}
}

func TestRoundTripLogicalToPhysical(t *testing.T) {
	c := SC50
	max := c.MaxLogical()

	step := 997 // odd stride, not a divisor of any internal constant
	for l := 0; l < max; l += step {
		p, err := c.LogicalToPhysical(l)
		if err != nil {
			t.Fatalf("LogicalToPhysical(%d) error: %v", l, err)
		}

		got, err := c.PhysicalToLogical(p)
		if err != nil {
			t.Fatalf("PhysicalToLogical(%v) error: %v", p, err)
		}

		if got != l {
			t.Errorf("round trip mismatch: %d -> %v -> %d", l, p, got)
		}
	}

	// Always check the exact boundary values too.
	for _, l := range []int{0, max - 1, max/2 - 1, max / 2} {
		p, err := c.LogicalToPhysical(l)
		if err != nil {
			t.Fatalf("LogicalToPhysical(%d) error: %v", l, err)
		}
		got, err := c.PhysicalToLogical(p)
		if err != nil || got != l {
			t.Errorf("boundary round trip failed at %d: got %d (err %v)", l, got, err)
		}
	}
}

func TestLogicalOutOfRange(t *testing.T) {
	c := SC50
	if _, err := c.LogicalToPhysical(-1); err != ErrOutOfRange {
		t.Errorf("expected ErrOutOfRange for -1, got %v", err)
	}
	if _, err := c.LogicalToPhysical(c.MaxLogical()); err != ErrOutOfRange {
		t.Errorf("expected ErrOutOfRange for MaxLogical, got %v", err)
	}
}

func TestParkingZoneRejected(t *testing.T) {
	c := SC50
	p := Position{Track: 5, X: c.ParkingStart()}
	if _, err := c.PhysicalToLogical(p); err != ErrParkingZone {
		t.Errorf("expected ErrParkingZone, got %v", err)
	}
}

// TestFastLaneContiguity checks the invariant from spec section 8: every
// physical position on track 23's front run maps into one contiguous
// logical range at the very start of the tape, and every position on track
// 0's back run maps into one contiguous logical range at the very end.
func TestFastLaneContiguity(t *testing.T) {
	c := SC50
	max := c.MaxLogical()
	half := c.HalfSize()

	for x := 0; x < half; x++ {
		l, err := c.PhysicalToLogical(Position{Track: c.Tracks - 1, X: x})
		if err != nil {
			t.Fatalf("front fast lane: %v", err)
		}
		if l < 0 || l >= half {
			t.Errorf("front fast lane x=%d -> logical %d outside [0,%d)", x, l, half)
		}

		l2, err := c.PhysicalToLogical(Position{Track: 0, X: c.ParkingEnd() + x})
		if err != nil {
			t.Fatalf("back fast lane: %v", err)
		}
		if l2 < max-half || l2 >= max {
			t.Errorf("back fast lane x=%d -> logical %d outside [%d,%d)", x, l2, max-half, max)
		}
	}
}

// TestLastLogicalBlockIsBackFastLane pins the tie-break: the end of the tape
// lands on the fast lane at the back of the tape.
func TestLastLogicalBlockIsBackFastLane(t *testing.T) {
	c := SC50
	p, err := c.LogicalToPhysical(c.MaxLogical() - 1)
	if err != nil {
		t.Fatal(err)
	}
	if p.Track != 0 {
		t.Errorf("expected last logical block on track 0 (back fast lane), got track %d", p.Track)
	}
	if p.X != c.FramesPerTrack-1 {
		t.Errorf("expected last logical block at the last frame of the track, got x=%d", p.X)
	}
}

// TestFirstLogicalBlockIsFrontFastLane checks the mirrored placement at the
// other end: the origin sits on the front half's fast lane, track Tracks-1.
func TestFirstLogicalBlockIsFrontFastLane(t *testing.T) {
	c := SC50
	p, err := c.LogicalToPhysical(0)
	if err != nil {
		t.Fatal(err)
	}
	if p.Track != c.Tracks-1 || p.X != 0 {
		t.Errorf("expected logical 0 at (track %d, x 0), got %v", c.Tracks-1, p)
	}
}

func TestNextIncludingParking(t *testing.T) {
	c := SC50

	p := Position{Track: 0, X: c.FramesPerTrack - 1}
	next, ok := c.NextIncludingParking(p)
	if !ok || next != (Position{Track: 1, X: 0}) {
		t.Errorf("expected wrap to track 1, x 0, got %v ok=%v", next, ok)
	}

	last := Position{Track: c.Tracks - 1, X: c.FramesPerTrack - 1}
	if _, ok := c.NextIncludingParking(last); ok {
		t.Errorf("expected no next position past the final cell")
	}
}

func TestClassify(t *testing.T) {
	c := SC50
	cases := []struct {
		x    int
		want Location
	}{
		{0, Front},
		{c.ParkingStart() - 1, Front},
		{c.ParkingStart(), Parking},
		{c.ParkingEnd() - 1, Parking},
		{c.ParkingEnd(), Back},
		{c.FramesPerTrack - 1, Back},
	}
	for _, tc := range cases {
		got := c.Classify(Position{Track: 3, X: tc.x})
		if got != tc.want {
			t.Errorf("Classify(x=%d) = %v, want %v", tc.x, got, tc.want)
		}
	}
}
