package videoroom

import (
	"crypto/rand"
	"math/big"

	"unibuddy/backend/internal/config"
)

// IDGenerator produces candidate room codes.
type IDGenerator interface {
	New() (string, error)
}

type roomCodeGen struct{}

// NewRoomCodeGenerator returns the crypto-random code generator.
func NewRoomCodeGenerator() IDGenerator {
	return roomCodeGen{}
}

// New returns config.RoomCodeLength characters drawn uniformly from an
// alphabet without 0/O and 1/I.
func (roomCodeGen) New() (string, error) {
	alphabet := config.RoomCodeAlphabet
	size := big.NewInt(int64(len(alphabet)))
	b := make([]byte, config.RoomCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b), nil
}
