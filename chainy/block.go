package chainy

import (
	"bytes"
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// GenesisHash is the sha1 digest of the literal text "GENESIS". It is kept
// as a literal constant, never derived at runtime, so that files written by
// older versions keep validating.
const GenesisHash = "ce02dec31ca49f3c8f149b3b931a0155121d2ca0"

// MaxDataLen is the largest payload a block accepts, in characters.
const MaxDataLen = 64

// Block is one immutable record in the chain. The hash seals the other four
// fields at construction time and is never recomputed in place afterwards.
// Field order fixes the serialized order in chain files.
type Block struct {
	Offset    uint64 `json:"offset"`
	Data      string `json:"data"`
	Timestamp uint64 `json:"timestamp"`
	Hash      string `json:"hash"`
	PrevHash  string `json:"previous_hash"`
}

// NewBlock reads the clock and returns a hash-sealed block. Payload length
// checking belongs to the chain, not here.
func NewBlock(offset uint64, data, prevHash string) (*Block, error) {
	now := time.Now().Unix()
	if now < 0 {
		return nil, ErrClock
	}

	timestamp := uint64(now)
	hash := calculateHash(offset, data, timestamp, prevHash)

	return &Block{offset, data, timestamp, hash, prevHash}, nil
}

// Validate recomputes the digest over the block's fields and compares it
// with the sealed hash.
func (b *Block) Validate() error {
	if calculateHash(b.Offset, b.Data, b.Timestamp, b.PrevHash) != b.Hash {
		return ErrBlockNotValid
	}

	return nil
}

// Serialize encodes the block for ledger storage.
func (b *Block) Serialize() ([]byte, error) {
	var res bytes.Buffer

	if err := gob.NewEncoder(&res).Encode(b); err != nil {
		return nil, errors.Wrap(err, "serialize block")
	}

	return res.Bytes(), nil
}

// Deserialize decodes a block previously written by Serialize.
func Deserialize(data []byte) (*Block, error) {
	var block Block

	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&block); err != nil {
		return nil, errors.Wrap(err, "deserialize block")
	}

	return &block, nil
}

// calculateHash concatenates the decimal offset, the raw payload, the
// decimal timestamp and the previous hash, in that order with no
// separators, and returns the lowercase hex sha1 of the result.
func calculateHash(offset uint64, data string, timestamp uint64, prevHash string) string {
	o := strconv.FormatUint(offset, 10)
	t := strconv.FormatUint(timestamp, 10)

	sum := sha1.Sum([]byte(o + data + t + prevHash))

	return hex.EncodeToString(sum[:])
}
