package ecs

// ID encodes a 32-bit slot index in the lower bits and a 32-bit generation
// in the upper bits. The generation advances every time the slot is released,
// so an ID held across a release no longer resolves.
type ID uint64

func NewID(index uint32, generation uint32) ID {
	return ID(uint64(generation)<<32 | uint64(index))
}

func (id ID) Index() uint32      { return uint32(id) }
func (id ID) Generation() uint32 { return uint32(id >> 32) }
func (id ID) IsZero() bool       { return id == 0 }

// Allocator hands out generational IDs with a free list.
// Index 0 generation 0 is never returned so the zero ID can mean "none".
type Allocator struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
}

func NewAllocator() *Allocator {
	return &Allocator{
		generations: make([]uint32, 1, 256),
		freeList:    make([]uint32, 0, 64),
		nextIndex:   1,
	}
}

func (a *Allocator) Create() ID {
	if len(a.freeList) > 0 {
		idx := a.freeList[len(a.freeList)-1]
		a.freeList = a.freeList[:len(a.freeList)-1]
		return NewID(idx, a.generations[idx])
	}
	idx := a.nextIndex
	a.nextIndex++
	if int(idx) >= len(a.generations) {
		a.generations = append(a.generations, 0)
	}
	return NewID(idx, a.generations[idx])
}

func (a *Allocator) Alive(id ID) bool {
	idx := id.Index()
	if idx == 0 || idx >= a.nextIndex {
		return false
	}
	return a.generations[idx] == id.Generation()
}

// Release invalidates id and returns its slot to the free list.
// Releasing a stale or unknown ID is a no-op.
func (a *Allocator) Release(id ID) {
	if !a.Alive(id) {
		return
	}
	idx := id.Index()
	a.generations[idx]++
	a.freeList = append(a.freeList, idx)
}

// Live returns the number of IDs currently alive.
func (a *Allocator) Live() int {
	return int(a.nextIndex) - 1 - len(a.freeList)
}
