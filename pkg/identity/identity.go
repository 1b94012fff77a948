package identity

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrInvalidAddress occurs when an address is not in a usable form.
var ErrInvalidAddress = errors.New("Invalid address")

// Address identifies a principal on the ledgers. It is opaque to the
// marketplace; the identity and payment ledgers give it meaning.
type Address string

// New returns a random address. Used by tests and tooling.
func New() Address {
	id, _ := uuid.NewRandom()
	return Address(id.String())
}

// Decode validates a raw address string.
func Decode(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return "", ErrInvalidAddress
	}
	return Address(s), nil
}

func (a Address) IsZero() bool {
	return len(a) == 0
}

func (a Address) Equal(other Address) bool {
	return a == other
}

func (a Address) String() string {
	return string(a)
}
