// Implements the WaitQueue holding customers waiting for a server within a
// single resource pool. Customers are enqueued when no server is free.

package sim

import (
	"fmt"
	"strings"
)

// WaitQueue is a FIFO queue of customers waiting to be seated.
type WaitQueue struct {
	queue []*Customer
}

// Enqueue adds a customer to the back of the wait queue.
func (wq *WaitQueue) Enqueue(c *Customer) {
	wq.queue = append(wq.queue, c)
}

// Len returns the number of waiting customers.
func (wq *WaitQueue) Len() int {
	return len(wq.queue)
}

// Peek returns the customer at the front without removing it.
// Returns nil if the queue is empty.
func (wq *WaitQueue) Peek() *Customer {
	if len(wq.queue) == 0 {
		return nil
	}
	return wq.queue[0]
}

// Dequeue removes and returns the customer at the front.
// Returns nil if the queue is empty.
func (wq *WaitQueue) Dequeue() *Customer {
	if len(wq.queue) == 0 {
		return nil
	}
	c := wq.queue[0]
	wq.queue = wq.queue[1:]
	return c
}

// Remove deletes the given customer from anywhere in the queue, preserving
// the order of everyone else. Used when a waiting customer reneges or is
// flushed at the horizon. Returns false if the customer is not queued.
func (wq *WaitQueue) Remove(c *Customer) bool {
	if c == nil {
		panic("Remove: customer must not be nil")
	}
	for i, queued := range wq.queue {
		if queued == c {
			wq.queue = append(wq.queue[:i], wq.queue[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns the queue contents for iteration.
// The returned slice is the queue's internal storage -- callers within the
// sim package may iterate over it but MUST NOT append to or reslice it.
func (wq *WaitQueue) Items() []*Customer {
	return wq.queue
}

func (wq *WaitQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, c := range wq.queue {
		sb.WriteString(fmt.Sprintf("c%d", c.ID))
		if i < len(wq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
