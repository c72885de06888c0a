package poolalloc

// Allocated returns the bytes currently handed out: the sum of requested
// payload sizes of live allocations. Header overhead and alignment
// rounding are not counted.
func (p *Pool) Allocated() int {
	return p.allocated
}

// Allocs returns the number of successful Alloc calls.
func (p *Pool) Allocs() int {
	return p.allocs
}

// Frees returns the number of successful Free calls. Nil inputs are not
// counted.
func (p *Pool) Frees() int {
	return p.frees
}

// FreeBlocks returns the current length of the free chain.
func (p *Pool) FreeBlocks() int {
	if p.buf == nil {
		return 0
	}
	n := 0
	for off := p.freeHead; off != nilBlock; off = p.nextFree(off) {
		n++
	}
	return n
}

// LargestFreeBlock returns the usable payload size of the largest free
// block, exactly: Alloc(n) succeeds for any n <= LargestFreeBlock().
// It returns 0 when the pool is completely full.
func (p *Pool) LargestFreeBlock() int {
	if p.buf == nil {
		return 0
	}
	largest := int32(0)
	for off := p.freeHead; off != nilBlock; off = p.nextFree(off) {
		if s := p.span(off); s > largest {
			largest = s
		}
	}
	if largest == 0 {
		return 0
	}
	return int(largest) - headerSize
}

// Available returns the total free payload bytes across all free blocks.
// External fragmentation may keep an Alloc of this size from succeeding;
// compare LargestFreeBlock.
func (p *Pool) Available() int {
	if p.buf == nil {
		return 0
	}
	total := 0
	for off := p.freeHead; off != nilBlock; off = p.nextFree(off) {
		total += int(p.span(off)) - headerSize
	}
	return total
}

// Size returns the backing region size in bytes, or 0 after Destroy.
func (p *Pool) Size() int {
	return len(p.buf)
}

// Stats is a point-in-time snapshot of a pool's counters.
type Stats struct {
	Size             int
	Allocated        int
	Available        int
	Allocs           int
	Frees            int
	FreeBlocks       int
	LargestFreeBlock int
}

// Stats returns a snapshot of the pool's statistics.
func (p *Pool) Stats() Stats {
	return Stats{
		Size:             p.Size(),
		Allocated:        p.Allocated(),
		Available:        p.Available(),
		Allocs:           p.Allocs(),
		Frees:            p.Frees(),
		FreeBlocks:       p.FreeBlocks(),
		LargestFreeBlock: p.LargestFreeBlock(),
	}
}
