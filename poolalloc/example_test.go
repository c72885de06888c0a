package poolalloc

import "fmt"

func Example() {
	p, _ := New(1024)
	defer p.Destroy()

	b1 := p.Alloc(100)
	b2 := p.Alloc(200) // cap is the payload rounded up to 8 bytes

	fmt.Printf("b1: len=%d cap=%d\n", len(b1), cap(b1))
	fmt.Printf("b2: len=%d cap=%d\n", len(b2), cap(b2))

	p.Free(b1)
	fmt.Printf("allocated=%d allocs=%d frees=%d\n", p.Allocated(), p.Allocs(), p.Frees())

	// Output:
	// b1: len=100 cap=104
	// b2: len=200 cap=200
	// allocated=200 allocs=2 frees=1
}
