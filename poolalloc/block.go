package poolalloc

import "unsafe"

const (
	// headerSize is the in-band header preceding every block's payload.
	headerSize = 16

	// payloadAlign is the alignment of every payload handed to callers.
	// Block offsets and spans are kept as multiples of it, so payloads
	// stay aligned without per-allocation fixups.
	payloadAlign = 8

	// minSpan is the smallest block worth keeping after a split: a header
	// plus one aligned payload, which is also enough room for the free
	// chain links. Splitting below this would create unusable slivers.
	minSpan = headerSize + payloadAlign

	// magicUsed/magicFree mark block state and catch double frees and
	// foreign pointers in Free.
	magicUsed uint32 = 0xA110CA7E
	magicFree uint32 = 0xF7EEB10C
)

// nilBlock terminates physical and free chain links.
const nilBlock int32 = -1

// Block header layout, 16 bytes:
//
//	+0  span    uint32  total block size, header included
//	+4  state   uint32  magicUsed or magicFree
//	+8  prevOff int32   physical predecessor offset, nilBlock for the first block
//	+12 used    uint32  requested payload bytes, valid while allocated
//
// Free blocks thread their chain links through the payload itself:
//
//	+16 prevFree int32
//	+20 nextFree int32
//
// A used block's payload is at least payloadAlign bytes, so every block
// has room for the links when it turns free.

func (p *Pool) hdr(off int32) unsafe.Pointer {
	return unsafe.Add(p.base, int(off))
}

func (p *Pool) span(off int32) int32 {
	return int32(*(*uint32)(p.hdr(off)))
}

func (p *Pool) setSpan(off, v int32) {
	*(*uint32)(p.hdr(off)) = uint32(v)
}

func (p *Pool) state(off int32) uint32 {
	return *(*uint32)(unsafe.Add(p.hdr(off), 4))
}

func (p *Pool) setState(off int32, v uint32) {
	*(*uint32)(unsafe.Add(p.hdr(off), 4)) = v
}

func (p *Pool) prevOff(off int32) int32 {
	return *(*int32)(unsafe.Add(p.hdr(off), 8))
}

func (p *Pool) setPrevOff(off, v int32) {
	*(*int32)(unsafe.Add(p.hdr(off), 8)) = v
}

func (p *Pool) used(off int32) int32 {
	return int32(*(*uint32)(unsafe.Add(p.hdr(off), 12)))
}

func (p *Pool) setUsed(off, v int32) {
	*(*uint32)(unsafe.Add(p.hdr(off), 12)) = uint32(v)
}

func (p *Pool) prevFree(off int32) int32 {
	return *(*int32)(unsafe.Add(p.hdr(off), 16))
}

func (p *Pool) setPrevFree(off, v int32) {
	*(*int32)(unsafe.Add(p.hdr(off), 16)) = v
}

func (p *Pool) nextFree(off int32) int32 {
	return *(*int32)(unsafe.Add(p.hdr(off), 20))
}

func (p *Pool) setNextFree(off, v int32) {
	*(*int32)(unsafe.Add(p.hdr(off), 20)) = v
}

// nextOff returns the physical successor of the block at off, or nilBlock
// if the block is the last one in the region.
func (p *Pool) nextOff(off int32) int32 {
	next := off + p.span(off)
	if next >= p.end {
		return nilBlock
	}
	return next
}

func alignUp(n int) int {
	return (n + payloadAlign - 1) &^ (payloadAlign - 1)
}
