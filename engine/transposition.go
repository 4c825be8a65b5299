package engine

import (
	"unsafe"

	"github.com/dylhunn/dragontoothmg"
)

// Bound says how a stored score relates to the true value of the node.
type Bound int8

const (
	// UpperBound: every move failed low, the true score is at most Score.
	UpperBound Bound = iota
	// LowerBound: a move failed high, the true score is at least Score.
	LowerBound
	Exact
)

// ReplacePolicy picks the victim when a cluster is full.
type ReplacePolicy int

const (
	// ReplaceDepthPreferred evicts stale entries first, then the shallowest one.
	ReplaceDepthPreferred ReplacePolicy = iota
	// ReplaceAlways overwrites the first slot of the cluster.
	ReplaceAlways
)

const clusterSize = 4

type TTEntry struct {
	Hash  uint64
	Move  dragontoothmg.Move
	Score int32
	Depth int8
	Bound Bound
	Age   uint8 // search generation that wrote the entry, 0 = empty
}

// TransTable is a fixed-size, cluster-associative cache of search results keyed
// by position hash. It never grows after construction. Distinct positions may
// share a hash; entries are not verified beyond the key.
type TransTable struct {
	entries      []TTEntry
	clusterCount uint64
	policy       ReplacePolicy
	age          uint8
	used         int
}

// NewTransTable allocates room for about entries slots, rounded down to whole
// clusters. A table with no slots ignores stores and never hits.
func NewTransTable(entries int, policy ReplacePolicy) *TransTable {
	clusters := Max(entries, 0) / clusterSize
	if entries > 0 && clusters == 0 {
		clusters = 1
	}
	return &TransTable{
		entries:      make([]TTEntry, clusters*clusterSize),
		clusterCount: uint64(clusters),
		policy:       policy,
		age:          1,
	}
}

// NewTransTableMB sizes the table from a memory budget in megabytes.
func NewTransTableMB(mb int, policy ReplacePolicy) *TransTable {
	entrySize := int(unsafe.Sizeof(TTEntry{}))
	return NewTransTable(mb*1024*1024/entrySize, policy)
}

// Capacity is the fixed number of slots.
func (tt *TransTable) Capacity() int {
	return len(tt.entries)
}

// Len is the number of occupied slots.
func (tt *TransTable) Len() int {
	return tt.used
}

// Clear empties the table without releasing its memory.
func (tt *TransTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.used = 0
	tt.age = 1
}

// NewSearch starts a new generation; entries from earlier generations become
// preferred replacement victims.
func (tt *TransTable) NewSearch() {
	tt.age++
	if tt.age == 0 {
		tt.age = 1
	}
}

func (tt *TransTable) cluster(hash uint64) int {
	return int(hash%tt.clusterCount) * clusterSize
}

// Probe returns the entry stored for hash, if any.
func (tt *TransTable) Probe(hash uint64) (*TTEntry, bool) {
	if tt.clusterCount == 0 {
		return nil, false
	}
	base := tt.cluster(hash)
	for i := 0; i < clusterSize; i++ {
		entry := &tt.entries[base+i]
		if entry.Age != 0 && entry.Hash == hash {
			return entry, true
		}
	}
	return nil, false
}

// Usable decides whether entry can replace searching the node at depth with
// the window (alpha, beta). The returned score is already ply adjusted.
func (tt *TransTable) Usable(entry *TTEntry, depth int8, alpha, beta int32, ply int) (bool, int32) {
	if entry == nil || entry.Depth < depth {
		return false, 0
	}
	score := scoreFromTT(entry.Score, ply)
	switch entry.Bound {
	case Exact:
		return true, score
	case UpperBound:
		if score <= alpha {
			return true, alpha
		}
	case LowerBound:
		if score >= beta {
			return true, beta
		}
	}
	return false, 0
}

// Store records a search result. Mate scores are converted to be relative to
// the stored node so they stay valid when reached through another path.
func (tt *TransTable) Store(hash uint64, depth int8, ply int, move dragontoothmg.Move, score int32, bound Bound) {
	if tt.clusterCount == 0 {
		return
	}
	base := tt.cluster(hash)
	target := -1

	// Prefer updating the existing entry
	for i := 0; i < clusterSize; i++ {
		if e := &tt.entries[base+i]; e.Age != 0 && e.Hash == hash {
			target = base + i
			if move == 0 {
				move = e.Move
			}
			break
		}
	}

	// Next look for an empty slot
	if target == -1 {
		for i := 0; i < clusterSize; i++ {
			if tt.entries[base+i].Age == 0 {
				target = base + i
				tt.used++
				break
			}
		}
	}

	if target == -1 {
		target = tt.victim(base)
	}

	tt.entries[target] = TTEntry{
		Hash:  hash,
		Move:  move,
		Score: scoreToTT(score, ply),
		Depth: depth,
		Bound: bound,
		Age:   tt.age,
	}
}

func (tt *TransTable) victim(base int) int {
	if tt.policy == ReplaceAlways {
		return base
	}
	best := -1
	bestStale := false
	for i := 0; i < clusterSize; i++ {
		idx := base + i
		stale := tt.entries[idx].Age != tt.age
		switch {
		case best == -1:
		case stale && !bestStale:
		case stale == bestStale && tt.entries[idx].Depth < tt.entries[best].Depth:
		default:
			continue
		}
		best, bestStale = idx, stale
	}
	return best
}

func scoreToTT(score int32, ply int) int32 {
	if score > Checkmate {
		return score + int32(ply)
	}
	if score < -Checkmate {
		return score - int32(ply)
	}
	return score
}

func scoreFromTT(score int32, ply int) int32 {
	if score > Checkmate {
		return score - int32(ply)
	}
	if score < -Checkmate {
		return score + int32(ply)
	}
	return score
}
