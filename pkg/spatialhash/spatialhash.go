// Package spatialhash implements the voxel-based broad-phase candidate
// generator (C3), grounded on astragaurd/packages/orbit/spatial_hash.py.
package spatialhash

import (
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Pair is an unordered candidate pair of object indices, i < j.
type Pair struct {
	I, J int
}

// Timestep is one item of the candidate stream: the object pairs found
// within the 27-voxel neighborhood at t_idx.
type Timestep struct {
	TIdx  int
	Pairs []Pair
}

var neighborOffsets = func() [27][3]int64 {
	var offs [27][3]int64
	n := 0
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				offs[n] = [3]int64{dx, dy, dz}
				n++
			}
		}
	}
	return offs
}()

type voxelKey [3]int64

// hashVoxel produces a 64-bit bucket key for a voxel's integer lattice
// coordinates via xxhash, avoiding Go's generic struct-key map hashing
// overhead at N-thousand-object scale.
func hashVoxel(k voxelKey) uint64 {
	var buf [24]byte
	putInt64(buf[0:8], k[0])
	putInt64(buf[8:16], k[1])
	putInt64(buf[16:24], k[2])
	return xxhash.Sum64(buf[:])
}

func putInt64(b []byte, v int64) {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> (8 * i))
	}
}

func voxelOf(pos [3]float64, voxelKm float64) voxelKey {
	return voxelKey{
		floorDiv(pos[0], voxelKm),
		floorDiv(pos[1], voxelKm),
		floorDiv(pos[2], voxelKm),
	}
}

func floorDiv(x, voxelKm float64) int64 {
	q := x / voxelKm
	i := int64(q)
	if q < 0 && float64(i) != q {
		i--
	}
	return i
}

// Stream is a finite, pull-based iterator over per-timestep candidate pairs,
// per spec §9 "Stream processing": it holds the position grid by reference
// and computes each timestep's pairs lazily on Next(), never materializing
// the full candidate set in memory.
type Stream struct {
	positions [][][3]float64 // [t][n][3]
	voxelKm   float64
	next      int
}

// NewStream builds a lazy candidate stream over positions[T][N][3] with the
// given voxel edge length.
func NewStream(positions [][][3]float64, voxelKm float64) *Stream {
	return &Stream{positions: positions, voxelKm: voxelKm}
}

// Len reports the total number of timesteps this stream will yield.
func (s *Stream) Len() int { return len(s.positions) }

// Next returns the next Timestep and true, or a zero value and false once
// the stream is exhausted. Not restartable.
func (s *Stream) Next() (Timestep, bool) {
	if s.next >= len(s.positions) {
		return Timestep{}, false
	}
	t := s.next
	s.next++
	return Timestep{TIdx: t, Pairs: pairsAtTimestep(s.positions[t], s.voxelKm)}, true
}

// bucket holds the object indices occupying one voxel, plus the voxel's
// lattice key so a hash collision between two distinct voxels never merges
// their members.
type bucket struct {
	key     voxelKey
	indices []int
}

func pairsAtTimestep(objects [][3]float64, voxelKm float64) []Pair {
	voxelMap := make(map[uint64][]bucket, len(objects))
	for idx, pos := range objects {
		vk := voxelOf(pos, voxelKm)
		h := hashVoxel(vk)
		buckets := voxelMap[h]
		found := false
		for i := range buckets {
			if buckets[i].key == vk {
				buckets[i].indices = append(buckets[i].indices, idx)
				found = true
				break
			}
		}
		if !found {
			buckets = append(buckets, bucket{key: vk, indices: []int{idx}})
		}
		voxelMap[h] = buckets
	}

	lookup := func(k voxelKey) ([]int, bool) {
		for _, b := range voxelMap[hashVoxel(k)] {
			if b.key == k {
				return b.indices, true
			}
		}
		return nil, false
	}

	seen := make(map[Pair]bool)
	for _, buckets := range voxelMap {
		for _, b := range buckets {
			for _, off := range neighborOffsets {
				nk := voxelKey{b.key[0] + off[0], b.key[1] + off[1], b.key[2] + off[2]}
				neighbors, ok := lookup(nk)
				if !ok {
					continue
				}
				for _, a := range b.indices {
					for _, c := range neighbors {
						if a < c {
							seen[Pair{a, c}] = true
						} else if c < a {
							seen[Pair{c, a}] = true
						}
					}
				}
			}
		}
	}

	pairs := make([]Pair, 0, len(seen))
	for p := range seen {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].I != pairs[j].I {
			return pairs[i].I < pairs[j].I
		}
		return pairs[i].J < pairs[j].J
	})
	return pairs
}
