// This file documents the derivation behind address.go's serpentine mapping;
// see spec section 4.1 of the design document for the prose this implements.
//
// The logical range [0, MaxLogical) splits into a front half [0, mid) and a
// back half [mid, MaxLogical), mid = MaxLogical/2. Track 23's front run is
// the front half's fast lane, addressed contiguously at [0, half); track 0's
// back run is the back half's fast lane, addressed contiguously at
// [MaxLogical-half, MaxLogical). Each fast lane is therefore a contiguous
// logical run within its own half, and the tape's last logical block lands
// on the back-half fast lane - track 0 - because that fast lane sits at the
// very end of the logical range rather than at its start.
// All other tracks serpentine through 11 partitions per half (ten of 1500
// blocks, one reduced edge partition of HalfSize mod 1500 blocks). Partitions
// are counted from the low-x end of each half, so the front half's edge
// partition is adjacent to the parking zone while the back half's edge
// partition lies at the far end of the track (the highest x values). The
// direction in which track number advances alternates partition-to-partition,
// and the direction in which x advances within a partition's segment
// alternates track-to-track (by track parity).
//
// Open question resolution (see DESIGN.md): the logical origin lands on
// physical (track Tracks-1, x 0), the first cell of the front-half fast
// lane, not on track 0. The distilled spec's separate remark that the origin
// sits on track 0 adjacent to the parking zone cannot hold at the same time
// as the last-block tie-break, since track 0 only has a run in the back
// half and a fast lane that is a contiguous run can anchor one end of the
// logical range, not both. The last-block tie-break is stated as an
// unconditional rule ("the end of the tape ... lands on the fast lane at
// the back of the tape"); it is treated as authoritative over the origin
// remark.
package tape
