// Package locals holds the parse-time chain of declared local variables.
//
// The chain is flat: nested blocks extend it and nothing ever pops it, so a
// declaration stays visible for the rest of the program. Slots grow by one
// per declaration and are never reused.
package locals

type Local struct {
	Name string // declared identifier
	Slot int    // index into the interpreter's locals array
	next *Local // previously declared local
}

type Chain struct {
	head *Local
	size int
}

// NewChain creates an empty chain
func NewChain() *Chain {
	return &Chain{}
}

// Declare appends name to the chain and returns its slot. The caller is
// responsible for rejecting duplicates with Lookup first.
func (c *Chain) Declare(name string) *Local {
	slot := 0
	if c.head != nil {
		slot = c.head.Slot + 1
	}

	c.head = &Local{Name: name, Slot: slot, next: c.head}
	c.size++

	return c.head
}

// Lookup walks the chain from the most recent declaration
func (c *Chain) Lookup(name string) (*Local, bool) {
	for l := c.head; l != nil; l = l.next {
		if l.Name == name {
			return l, true
		}
	}

	return nil, false
}

// NextSlot returns the slot the next declaration would receive
func (c *Chain) NextSlot() int {
	if c.head == nil {
		return 0
	}

	return c.head.Slot + 1
}

// Size returns the number of declarations
func (c *Chain) Size() int {
	return c.size
}

// Mark captures the chain so it can be restored with Reset
type Mark struct {
	head *Local
	size int
}

// Mark returns the current state of the chain
func (c *Chain) Mark() Mark {
	return Mark{head: c.head, size: c.size}
}

// Reset forgets every declaration made after m was taken
func (c *Chain) Reset(m Mark) {
	c.head = m.head
	c.size = m.size
}

// Names returns declared names, most recent first
func (c *Chain) Names() []string {
	names := make([]string, 0, c.size)
	for l := c.head; l != nil; l = l.next {
		names = append(names, l.Name)
	}

	return names
}
