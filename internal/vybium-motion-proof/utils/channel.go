package utils

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/vybium/vybium-crypto/pkg/vybium-crypto/field"
)

// Channel is a Fiat-Shamir transcript used to derive the verifier's query
// positions non-interactively. Prover and verifier feed it the same public
// data in the same order, so both sides derive identical challenges.
type Channel struct {
	state      []byte
	transcript []string
	hashFunc   string
}

// NewChannel creates a new Fiat-Shamir channel
func NewChannel(hashFunc string) *Channel {
	if hashFunc == "" {
		hashFunc = "sha3"
	}
	return &Channel{
		state:      []byte{0},
		transcript: make([]string, 0, 32),
		hashFunc:   hashFunc,
	}
}

// Send absorbs data into the channel state
func (c *Channel) Send(data []byte) {
	c.transcript = append(c.transcript, fmt.Sprintf("send:%s", hex.EncodeToString(data)))
	c.state = c.hash(append(c.state, data...))
}

// SendUint64 absorbs a single integer in little-endian form
func (c *Channel) SendUint64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	c.Send(buf[:])
}

// ReceiveIndex derives a pseudo-random index in [0, bound)
func (c *Channel) ReceiveIndex(bound int) (int, error) {
	if bound <= 0 {
		return 0, fmt.Errorf("index bound must be positive, got %d", bound)
	}

	if len(c.state) < 8 {
		c.state = c.hash(c.state)
	}
	v := binary.LittleEndian.Uint64(c.state[:8])
	index := int(v % uint64(bound))

	c.transcript = append(c.transcript, fmt.Sprintf("receiveIndex:%d", index))
	c.state = c.hash(c.state)

	return index, nil
}

// ReceiveFieldElement derives a pseudo-random Goldilocks field element
func (c *Channel) ReceiveFieldElement() field.Element {
	if len(c.state) < 8 {
		c.state = c.hash(c.state)
	}
	v := binary.LittleEndian.Uint64(c.state[:8])
	elem := field.New(v)

	c.transcript = append(c.transcript, fmt.Sprintf("receiveFieldElement:%d", elem.Value()))
	c.state = c.hash(c.state)

	return elem
}

// State returns a copy of the current channel state
func (c *Channel) State() []byte {
	return append([]byte(nil), c.state...)
}

// hash computes the hash of the input using the configured hash function
func (c *Channel) hash(data []byte) []byte {
	switch c.hashFunc {
	case "sha3":
		h := sha3.Sum256(data)
		return h[:]
	case "shake":
		var h [32]byte
		sha3.ShakeSum256(h[:], data)
		return h[:]
	default:
		h := sha3.Sum256(data)
		return h[:]
	}
}

// String returns the channel transcript, mainly for debugging
func (c *Channel) String() string {
	return strings.Join(c.transcript, " ")
}
