package chainy

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Chain is the ordered block sequence, rooted at genesis. It is mutated
// only by Entry and assumes a single exclusive writer.
type Chain struct {
	chain []*Block
}

// chainFile is the persisted shape: one "chain" field holding the blocks.
type chainFile struct {
	Chain []*Block `json:"chain"`
}

// New returns a fresh chain holding only the genesis block.
func New() (*Chain, error) {
	genesis, err := NewBlock(0, "GENESIS", GenesisHash)
	if err != nil {
		return nil, err
	}

	return &Chain{chain: []*Block{genesis}}, nil
}

func (c *Chain) prevBlock() *Block {
	return c.chain[len(c.chain)-1]
}

// Entry appends one block carrying data to the end of the chain. On any
// failure the chain is left unmodified.
func (c *Chain) Entry(data string) error {
	if len(data) > MaxDataLen {
		return ErrDataTooLong
	}
	if len(c.chain) == 0 {
		return ErrEmptyChain
	}

	// Offsets keep the historical numbering of existing chain files:
	// genesis is 0 and the first entry is 2, skipping 1.
	next := len(c.chain) + 1
	if next < 0 {
		return ErrOffsetOverflow
	}

	block, err := NewBlock(uint64(next), data, c.prevBlock().Hash)
	if err != nil {
		return err
	}

	c.addBlock(block)

	return nil
}

func (c *Chain) addBlock(b *Block) {
	c.chain = append(c.chain, b)
}

// Validate walks the chain from genesis forward, checking each block's own
// hash and the linkage to its predecessor, and stops at the first violation.
// It never mutates the chain.
func (c *Chain) Validate() error {
	if len(c.chain) == 0 {
		return ErrChainNotValid
	}
	// Loaded files may decode null entries into nil blocks.
	for _, b := range c.chain {
		if b == nil {
			return ErrChainNotValid
		}
	}
	if c.chain[0].Offset != 0 {
		return ErrChainNotValid
	}
	if c.chain[0].PrevHash != GenesisHash {
		return ErrChainNotValid
	}
	if err := c.chain[0].Validate(); err != nil {
		return err
	}

	for i := 1; i < len(c.chain); i++ {
		if err := c.chain[i].Validate(); err != nil {
			return err
		}
		if c.chain[i-1].Hash != c.chain[i].PrevHash {
			return ErrChainNotValid
		}
	}

	return nil
}

// Blocks returns the ordered block sequence, genesis first.
func (c *Chain) Blocks() []*Block {
	return c.chain
}

// Len returns the number of blocks, genesis included.
func (c *Chain) Len() int {
	return len(c.chain)
}

// Store writes the chain to path in the same encoding String renders,
// fully overwriting any existing content.
func (c *Chain) Store(path string) error {
	data, err := json.Marshal(chainFile{Chain: c.chain})
	if err != nil {
		return errors.Wrap(err, "encode chain")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "store chain to %s", path)
	}

	return nil
}

// Load reads a persisted chain from path and validates it. No chain is
// returned unless validation succeeds.
func Load(path string) (*Chain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load chain from %s", path)
	}

	var file chainFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(ErrDecode, "decode chain from %s: %v", path, err)
	}

	c := &Chain{chain: file.Chain}
	if err := c.Validate(); err != nil {
		return nil, ErrChainNotValid
	}

	return c, nil
}

// String renders the chain as the JSON document Store writes.
func (c *Chain) String() string {
	data, _ := json.Marshal(chainFile{Chain: c.chain})

	return string(data)
}
