package tape

import "errors"

// Errors returned by the address arithmetic. Plain sentinel values, wrapped
// with call-site context by callers using github.com/pkg/errors, matching the
// teacher's layering convention.
var (
	ErrParkingZone = errors.New("tape: position is inside the parking zone")
	ErrOutOfRange  = errors.New("tape: logical block out of range")
	ErrInvalidTrack = errors.New("tape: track out of range for cartridge")
)

// PhysicalToLogical converts a physical position to its logical block number.
//
// Layout (see tape/doc.go for the full derivation): the logical range is
// split into a front half [0, mid) and a back half [mid, max), mid =
// max/2. Track 23's front run is the front half's fast lane, addressed
// contiguously at the very start of the half; track 0's back run is the
// back half's fast lane, addressed contiguously at the very end of the
// half, so the tape's last logical block always lands on it. Every other
// track is serpentined across 11 partitions of up to 1500 blocks within
// its half.
func (c Cartridge) PhysicalToLogical(p Position) (int, error) {
	if !c.Valid(p) {
		return 0, ErrInvalidTrack
	}
	if c.Classify(p) == Parking {
		return 0, ErrParkingZone
	}

	half := c.HalfSize()
	mid := c.MaxLogical() / 2

	if p.X < c.ParkingStart() {
		// Front half: fast lane at the start, [0, half); regular tracks
		// fill the rest, [half, mid).
		if p.Track == c.Tracks-1 {
			return p.X, nil
		}
		seq := c.seqFromRegular(true, p.Track, p.X)
		return half + seq, nil
	}

	// Back half: regular tracks fill [mid, max-half); fast lane at the
	// end, [max-half, max).
	withinHalf := p.X - c.ParkingEnd()
	if p.Track == 0 {
		return c.MaxLogical() - half + withinHalf, nil
	}
	seq := c.seqFromRegular(false, p.Track, withinHalf)
	return mid + seq, nil
}

// LogicalToPhysical is the inverse of PhysicalToLogical.
func (c Cartridge) LogicalToPhysical(l int) (Position, error) {
	max := c.MaxLogical()
	if l < 0 || l >= max {
		return Position{}, ErrOutOfRange
	}

	half := c.HalfSize()
	mid := max / 2

	if l < mid {
		// Front half: fast lane at the start, regular tracks after it.
		if l < half {
			return Position{Track: c.Tracks - 1, X: l}, nil
		}
		track, x := c.regularFromSeq(true, l-half)
		return Position{Track: track, X: x}, nil
	}

	// Back half: regular tracks first, fast lane at the end.
	lb := l - mid
	regularSize := c.regularTracks() * half
	if lb < regularSize {
		track, x := c.regularFromSeq(false, lb)
		return Position{Track: track, X: c.ParkingEnd() + x}, nil
	}
	withinHalf := lb - regularSize
	return Position{Track: 0, X: c.ParkingEnd() + withinHalf}, nil
}

// NextIncludingParking totals over the entire physical grid (including the
// parking zone), track-major and x ascending within a track, wrapping to the
// next track at the end of a track. It returns false once p is the final
// cell of the grid.
func (c Cartridge) NextIncludingParking(p Position) (Position, bool) {
	if !c.Valid(p) {
		return Position{}, false
	}
	if p.X+1 < c.FramesPerTrack {
		return Position{Track: p.Track, X: p.X + 1}, true
	}
	if p.Track+1 < c.Tracks {
		return Position{Track: p.Track + 1, X: 0}, true
	}
	return Position{}, false
}

// seqFromRegular computes the sequential position (0..regularTracks*half-1)
// of (track, x) within the serpentine section of one half. front selects
// which half's regular-track numbering (0..Tracks-2, or 1..Tracks-1) applies.
func (c Cartridge) seqFromRegular(front bool, track, x int) int {
	numRegular := c.regularTracks()
	regularIdx := regularIndex(front, track)

	p, segStart, segLen := c.partitionOf(x)

	posInOrder := regularIdx
	if p%2 == 0 {
		posInOrder = numRegular - 1 - regularIdx
	}

	var segOffset int
	if track%2 == 0 {
		segOffset = x - segStart
	} else {
		segOffset = (segStart + segLen - 1) - x
	}

	prefix := fullPartitionsBefore(p) * numRegular * c.partitionSize
	return prefix + posInOrder*segLen + segOffset
}

// regularFromSeq is the inverse of seqFromRegular, returning the physical
// track and within-half x for a sequential position in one half's serpentine
// section.
func (c Cartridge) regularFromSeq(front bool, seq int) (track, x int) {
	half := c.HalfSize()
	numRegular := c.regularTracks()
	fullBlock := numRegular * c.partitionSize
	fullPartitions := half / c.partitionSize // number of full-size partitions before the edge partition

	var p, rem, segLen, segStart int
	if seq < fullPartitions*fullBlock {
		p = seq / fullBlock
		rem = seq % fullBlock
		segLen = c.partitionSize
		segStart = p * c.partitionSize
	} else {
		p = fullPartitions
		rem = seq - fullPartitions*fullBlock
		segStart = fullPartitions * c.partitionSize
		segLen = half - segStart
	}

	posInOrder := rem / segLen
	segOffset := rem % segLen

	regularIdx := posInOrder
	if p%2 == 0 {
		regularIdx = numRegular - 1 - posInOrder
	}

	track = actualTrack(front, regularIdx)

	if track%2 == 0 {
		x = segStart + segOffset
	} else {
		x = segStart + segLen - 1 - segOffset
	}
	return track, x
}

// regularIndex maps an actual track number to its 0-based position within
// the regular-track list for the given half (front: tracks 0..Tracks-2 in
// order; back: tracks 1..Tracks-1 in order).
func regularIndex(front bool, track int) int {
	if front {
		return track
	}
	return track - 1
}

func actualTrack(front bool, regularIdx int) int {
	if front {
		return regularIdx
	}
	return regularIdx + 1
}

// partitionOf returns the partition index, its start offset and its length
// (the last partition in a half is the reduced "edge" partition) for a
// within-half x coordinate.
func (c Cartridge) partitionOf(x int) (p, segStart, segLen int) {
	half := c.HalfSize()
	fullPartitions := half / c.partitionSize
	if x < fullPartitions*c.partitionSize {
		p = x / c.partitionSize
		segStart = p * c.partitionSize
		segLen = c.partitionSize
		return
	}
	p = fullPartitions
	segStart = fullPartitions * c.partitionSize
	segLen = half - segStart
	return
}

func fullPartitionsBefore(p int) int {
	return p
}
