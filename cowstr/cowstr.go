// Package cowstr implements a copy-on-write byte string allocated from a
// poolalloc.Pool. Clones share one reference-counted buffer; the first
// write through a clone detaches it onto its own copy. Buffers go back to
// the pool on Release, since Go has no destructors to do it implicitly.
//
// Strings are not goroutine-safe.
package cowstr

import (
	"bytes"
	"unsafe"

	"github.com/bytedance/gopkg/lang/mcache"
	"github.com/bytedance/gopkg/util/xxhash3"

	"github.com/memkit/memkit/poolalloc"
)

// String is a copy-on-write string. The zero value is an empty string
// with no buffer behind it.
type String struct {
	d *data
}

type data struct {
	refs   int
	buf    []byte
	pool   *poolalloc.Pool
	pooled bool // buf was carved from pool rather than mcache
	hash   uint64
	hashed bool
}

// newData allocates an n-byte buffer, preferring pool and falling back to
// the shared mcache size classes when the pool is exhausted or absent.
func newData(pool *poolalloc.Pool, n int) *data {
	d := &data{refs: 1, pool: pool}
	if n == 0 {
		return d
	}
	if pool != nil {
		if b := pool.Alloc(n); b != nil {
			d.buf = b
			d.pooled = true
			return d
		}
	}
	d.buf = mcache.Malloc(n)
	return d
}

func (d *data) release() {
	if d.buf == nil {
		return
	}
	if d.pooled {
		d.pool.Free(d.buf)
	} else {
		mcache.Free(d.buf)
	}
	d.buf = nil
}

func (d *data) digest() uint64 {
	if !d.hashed {
		d.hash = xxhash3.Hash(d.buf)
		d.hashed = true
	}
	return d.hash
}

// New creates a string holding a copy of s, allocated from pool. A nil
// pool sends every buffer to mcache.
func New(pool *poolalloc.Pool, s string) String {
	d := newData(pool, len(s))
	copy(d.buf, s)
	return String{d: d}
}

// Clone returns a string sharing this one's buffer. Both must eventually
// be Released.
func (s String) Clone() String {
	if s.d == nil {
		return String{}
	}
	s.d.refs++
	return String{d: s.d}
}

// Release drops one reference; the last one returns the buffer to its
// allocator. Releasing an already-released string panics.
func (s String) Release() {
	if s.d == nil {
		return
	}
	if s.d.refs <= 0 {
		panic("cowstr: release of released string")
	}
	s.d.refs--
	if s.d.refs == 0 {
		s.d.release()
	}
}

// Len returns the string length in bytes.
func (s String) Len() int {
	if s.d == nil {
		return 0
	}
	return len(s.d.buf)
}

// Empty reports whether the string has zero length.
func (s String) Empty() bool {
	return s.Len() == 0
}

// At returns the byte at index i.
func (s String) At(i int) byte {
	if s.d == nil {
		panic("cowstr: index out of range")
	}
	return s.d.buf[i]
}

// String returns the content as a string without copying. The view
// aliases the shared buffer: it stays valid until the buffer's last
// Release and sees SetAt writes made by a sole holder.
func (s String) String() string {
	if s.Len() == 0 {
		return ""
	}
	b := s.d.buf
	return *(*string)(unsafe.Pointer(&b))
}

// SetAt writes one byte. A buffer shared with clones is detached first,
// so the other holders keep the old content.
func (s *String) SetAt(i int, c byte) {
	if s.d == nil || i < 0 || i >= len(s.d.buf) {
		panic("cowstr: index out of range")
	}
	s.detach()
	s.d.buf[i] = c
	s.d.hashed = false
}

func (s *String) detach() {
	d := s.d
	if d.refs == 1 {
		return
	}
	nd := newData(d.pool, len(d.buf))
	copy(nd.buf, d.buf)
	d.refs--
	s.d = nd
}

// Concat returns a new string holding s followed by t, allocated from
// s's pool (or t's, when s has none).
func (s String) Concat(t String) String {
	pool := s.pool()
	if pool == nil {
		pool = t.pool()
	}
	nd := newData(pool, s.Len()+t.Len())
	n := copy(nd.buf, s.view())
	copy(nd.buf[n:], t.view())
	return String{d: nd}
}

// Equal reports content equality. Shared buffers and cached digests keep
// the common mismatch paths cheap.
func (s String) Equal(t String) bool {
	if s.d == t.d {
		return true
	}
	if s.Len() != t.Len() {
		return false
	}
	if s.Len() == 0 {
		return true
	}
	if s.d.digest() != t.d.digest() {
		return false
	}
	return bytes.Equal(s.d.buf, t.d.buf)
}

// RefCount returns how many strings share this one's buffer. A zero
// value string reports 0.
func (s String) RefCount() int {
	if s.d == nil {
		return 0
	}
	return s.d.refs
}

func (s String) pool() *poolalloc.Pool {
	if s.d == nil {
		return nil
	}
	return s.d.pool
}

func (s String) view() []byte {
	if s.d == nil {
		return nil
	}
	return s.d.buf
}
