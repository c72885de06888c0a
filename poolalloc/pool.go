// Package poolalloc implements a fixed-capacity pool allocator: variable
// sized allocations are carved out of one pre-reserved contiguous region
// with first-fit search, block splitting and free-block coalescing.
//
// The pool never grows. Alloc returns nil once no free block can satisfy
// a request; the caller decides what to do next. A Pool is not
// goroutine-safe; wrap it with a single mutex if it must be shared.
package poolalloc

import (
	"fmt"
	"unsafe"
)

// MaxPoolSize bounds a single pool's region; block offsets are 32-bit.
const MaxPoolSize = 1<<31 - 1

// Pool owns one fixed backing region and hands out aligned payloads from
// it. Every block, free or allocated, carries an in-band header; the free
// blocks form a doubly-linked chain kept in ascending address order, which
// keeps coalescing local to the two physical neighbors of a freed block.
type Pool struct {
	buf  []byte
	base unsafe.Pointer
	sup  Supplier

	start int32 // offset of the first block, payload-aligned
	end   int32 // offset one past the last block

	freeHead int32

	allocs    int
	frees     int
	allocated int
}

// New creates a pool backed by a heap region of poolSize bytes.
func New(poolSize int) (*Pool, error) {
	return NewWithSupplier(poolSize, HeapSupplier{})
}

// NewWithSupplier creates a pool whose region comes from sup. The region
// is acquired once here and released once by Destroy. The pool starts as
// a single free block covering the usable capacity: poolSize minus one
// header and minus whatever is lost aligning the region start.
func NewWithSupplier(poolSize int, sup Supplier) (*Pool, error) {
	if poolSize <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", poolSize)
	}
	if poolSize > MaxPoolSize {
		return nil, fmt.Errorf("pool size must be <= %d, got %d", MaxPoolSize, poolSize)
	}
	buf, err := sup.Acquire(poolSize)
	if err != nil {
		return nil, fmt.Errorf("acquire %d byte region: %w", poolSize, err)
	}
	if len(buf) < poolSize {
		sup.Release(buf)
		return nil, fmt.Errorf("supplier returned %d bytes, need %d", len(buf), poolSize)
	}
	p := &Pool{
		buf:  buf,
		base: unsafe.Pointer(&buf[0]),
		sup:  sup,
	}
	skew := int(-uintptr(p.base) & (payloadAlign - 1))
	usable := (poolSize - skew) &^ (payloadAlign - 1)
	if usable < minSpan {
		sup.Release(buf)
		return nil, fmt.Errorf("pool size %d too small, need at least %d usable bytes", poolSize, minSpan)
	}
	p.start = int32(skew)
	p.end = int32(skew + usable)

	p.setSpan(p.start, int32(usable))
	p.setState(p.start, magicFree)
	p.setPrevOff(p.start, nilBlock)
	p.setPrevFree(p.start, nilBlock)
	p.setNextFree(p.start, nilBlock)
	p.freeHead = p.start
	return p, nil
}

// Destroy releases the backing region to the supplier. It runs at most
// once; further calls are no-ops. Outstanding allocations become invalid.
func (p *Pool) Destroy() {
	if p.buf == nil {
		return
	}
	buf := p.buf
	p.buf = nil
	p.base = nil
	p.freeHead = nilBlock
	p.sup.Release(buf)
}

// Alloc returns a payload of exactly size bytes, or nil if size is not
// positive or no free block is large enough. The returned slice's cap is
// the block's full usable payload (size rounded up to payloadAlign, more
// if an un-splittable remainder was absorbed).
//
// The slice must be passed back to Free unresliced.
func (p *Pool) Alloc(size int) []byte {
	if p.buf == nil {
		panic("poolalloc: use after Destroy")
	}
	if size <= 0 || size > int(p.end-p.start)-headerSize {
		return nil
	}
	need := int32(headerSize + alignUp(size))

	// First fit: the chain is in ascending address order.
	for off := p.freeHead; off != nilBlock; off = p.nextFree(off) {
		span := p.span(off)
		if span < need {
			continue
		}
		if span-need >= minSpan {
			p.split(off, need)
		} else {
			// Too small to split off a usable remainder: hand out the
			// whole block, accepting the internal fragmentation.
			need = span
			p.unlink(off)
		}
		p.setState(off, magicUsed)
		p.setUsed(off, int32(size))
		p.allocs++
		p.allocated += size
		payload := unsafe.Add(p.base, int(off)+headerSize)
		return unsafe.Slice((*byte)(payload), int(need)-headerSize)[:size]
	}
	return nil
}

// Free returns a payload previously obtained from Alloc. A nil (or
// zero-cap) input is a no-op and is not counted. Passing a pointer this
// pool did not hand out, or freeing twice, panics when the header check
// catches it; such inputs are outside the contract.
func (p *Pool) Free(block []byte) {
	if cap(block) == 0 {
		return
	}
	if p.buf == nil {
		panic("poolalloc: use after Destroy")
	}
	// Read the slice header directly so zero-length inputs cannot panic.
	dataPtr := *(*uintptr)(unsafe.Pointer(&block))
	diff := int64(dataPtr) - int64(uintptr(p.base)) - headerSize
	if diff < int64(p.start) || diff >= int64(p.end) {
		panic("poolalloc: block not in pool region")
	}
	off := int32(diff)
	if (off-p.start)&(payloadAlign-1) != 0 {
		panic("poolalloc: misaligned block")
	}
	if p.state(off) != magicUsed {
		panic("poolalloc: double free or invalid block")
	}

	p.frees++
	p.allocated -= int(p.used(off))
	p.setState(off, magicFree)
	p.linkFree(off)
	p.coalesce(off)
}

// split cuts the free block at off into an allocated front of exactly
// need bytes and a free remainder that takes over the block's position
// in the free chain.
func (p *Pool) split(off, need int32) {
	rem := off + need
	p.setSpan(rem, p.span(off)-need)
	p.setState(rem, magicFree)
	p.setPrevOff(rem, off)
	if after := p.nextOff(rem); after != nilBlock {
		p.setPrevOff(after, rem)
	}

	prev, next := p.prevFree(off), p.nextFree(off)
	p.setPrevFree(rem, prev)
	p.setNextFree(rem, next)
	if prev != nilBlock {
		p.setNextFree(prev, rem)
	} else {
		p.freeHead = rem
	}
	if next != nilBlock {
		p.setPrevFree(next, rem)
	}

	p.setSpan(off, need)
}

// unlink removes the block at off from the free chain.
func (p *Pool) unlink(off int32) {
	prev, next := p.prevFree(off), p.nextFree(off)
	if prev != nilBlock {
		p.setNextFree(prev, next)
	} else {
		p.freeHead = next
	}
	if next != nilBlock {
		p.setPrevFree(next, prev)
	}
}

// linkFree inserts the freed block at off into the address-ordered chain.
// When either physical neighbor is free it already sits in the chain at
// the right spot, so insertion is O(1); only a freed block wedged between
// two allocated blocks needs a walk from the head.
func (p *Pool) linkFree(off int32) {
	if prev := p.prevOff(off); prev != nilBlock && p.state(prev) == magicFree {
		p.insertAfter(prev, off)
		return
	}
	if next := p.nextOff(off); next != nilBlock && p.state(next) == magicFree {
		if before := p.prevFree(next); before != nilBlock {
			p.insertAfter(before, off)
			return
		}
		p.setPrevFree(off, nilBlock)
		p.setNextFree(off, next)
		p.setPrevFree(next, off)
		p.freeHead = off
		return
	}

	var prev int32 = nilBlock
	cur := p.freeHead
	for cur != nilBlock && cur < off {
		prev = cur
		cur = p.nextFree(cur)
	}
	if prev == nilBlock {
		p.setPrevFree(off, nilBlock)
		p.setNextFree(off, cur)
		if cur != nilBlock {
			p.setPrevFree(cur, off)
		}
		p.freeHead = off
		return
	}
	p.insertAfter(prev, off)
}

// insertAfter links off into the free chain right after pos.
func (p *Pool) insertAfter(pos, off int32) {
	next := p.nextFree(pos)
	p.setPrevFree(off, pos)
	p.setNextFree(off, next)
	p.setNextFree(pos, off)
	if next != nilBlock {
		p.setPrevFree(next, off)
	}
}

// coalesce merges the freed block at off with whichever physical
// neighbors are free. Free blocks are always maximal, so at most one
// merge happens per side.
func (p *Pool) coalesce(off int32) {
	if next := p.nextOff(off); next != nilBlock && p.state(next) == magicFree {
		p.unlink(next)
		p.setState(next, 0)
		p.setSpan(off, p.span(off)+p.span(next))
		if after := p.nextOff(off); after != nilBlock {
			p.setPrevOff(after, off)
		}
	}
	if prev := p.prevOff(off); prev != nilBlock && p.state(prev) == magicFree {
		p.unlink(off)
		p.setState(off, 0)
		p.setSpan(prev, p.span(prev)+p.span(off))
		if after := p.nextOff(prev); after != nilBlock {
			p.setPrevOff(after, prev)
		}
	}
}
