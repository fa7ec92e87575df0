package client

import (
	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

// Transaction is an open multi action: an envelope seeded with the auth
// fields and the next free slot. Next always equals the number of staged calls.
type Transaction struct {
	envelope *Envelope
	next     int
}

// NewTransaction opens an empty transaction.
func NewTransaction(auth map[string]string) *Transaction {
	return &Transaction{envelope: NewEnvelope(auth)}
}

// Stage appends one call and returns the slot it occupies.
func (t *Transaction) Stage(method foundation.Method, args []foundation.Arg) (int, error) {
	index := t.next

	staged := t.envelope.Clone()

	err := staged.Stage(index, method, args)
	if err != nil {
		return 0, err
	}

	t.envelope = staged
	t.next++

	return index, nil
}

// Len returns the number of staged calls.
func (t *Transaction) Len() int {
	return t.next
}

// Envelope returns the staged envelope.
func (t *Transaction) Envelope() *Envelope {
	return t.envelope
}
