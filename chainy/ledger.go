package chainy

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger"
	"github.com/pkg/errors"

	"github.com/fbroman/chainy/internal/util"
)

// lastHashKey tracks the ledger tail.
var lastHashKey = []byte("lh")

// Ledger is a durable block store: every block is kept under its raw digest
// bytes, with lastHashKey pointing at the tail. An empty ledger has a nil
// LastHash until its genesis block is appended.
type Ledger struct {
	LastHash []byte
	db       *badger.DB
}

// LedgerExists reports whether a ledger database lives in path.
func LedgerExists(path string) bool {
	if _, err := os.Stat(filepath.Join(path, "MANIFEST")); os.IsNotExist(err) {
		return false
	}

	return true
}

// OpenLedger creates a fresh, empty ledger in path.
func OpenLedger(path string) (*Ledger, error) {
	if LedgerExists(path) {
		return nil, errors.Errorf("ledger already exists in %s", path)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	return &Ledger{db: db}, nil
}

// ContinueLedger opens the ledger already living in path.
func ContinueLedger(path string) (*Ledger, error) {
	if !LedgerExists(path) {
		return nil, errors.Errorf("no ledger found in %s", path)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	var lastHash []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(lastHashKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		lastHash, err = item.ValueCopy(nil)

		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "continue ledger in %s", path)
	}

	return &Ledger{LastHash: lastHash, db: db}, nil
}

// Append stores one block and moves the tail to it. The first block must be
// the genesis block; every later block must link to the current tail.
func (l *Ledger) Append(b *Block) error {
	if err := b.Validate(); err != nil {
		return err
	}

	key, err := util.BlockKey(b.Hash)
	if err != nil {
		return err
	}

	if l.LastHash == nil {
		if b.Offset != 0 || b.PrevHash != GenesisHash {
			return ErrChainNotValid
		}
	} else {
		prev, err := util.BlockKey(b.PrevHash)
		if err != nil {
			return err
		}
		if !bytes.Equal(prev, l.LastHash) {
			return ErrChainNotValid
		}
	}

	data, err := b.Serialize()
	if err != nil {
		return err
	}

	err = l.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}

		return txn.Set(lastHashKey, key)
	})
	if err != nil {
		return errors.Wrap(err, "append block")
	}

	l.LastHash = key

	return nil
}

// Get looks a block up by its base58 id.
func (l *Ledger) Get(id string) (*Block, error) {
	key, err := util.DecodeID(id)
	if err != nil {
		return nil, err
	}

	var block *Block
	err = l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return errors.Errorf("block %s is not found", id)
		}
		if err != nil {
			return err
		}

		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		block, err = Deserialize(data)

		return err
	})
	if err != nil {
		return nil, err
	}

	return block, nil
}

// Archive copies every block of the chain not yet in the ledger, in order.
// The ledger tail must already lie on the chain.
func (l *Ledger) Archive(c *Chain) error {
	blocks := c.Blocks()

	start := 0
	if l.LastHash != nil {
		tail := hex.EncodeToString(l.LastHash)
		start = -1
		for i, b := range blocks {
			if b.Hash == tail {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return ErrChainNotValid
		}
	}

	for _, b := range blocks[start:] {
		if err := l.Append(b); err != nil {
			return err
		}
	}

	return nil
}

// Chain rebuilds the in-memory chain from the ledger and validates it. No
// chain is returned unless validation succeeds.
func (l *Ledger) Chain() (*Chain, error) {
	if l.LastHash == nil {
		return nil, ErrEmptyChain
	}

	var blocks []*Block
	seen := make(map[string]struct{})

	iter := l.Iterator()
	for {
		block, err := iter.Next()
		if err != nil {
			return nil, err
		}

		// A revisited hash means tampered prev links form a cycle.
		if _, ok := seen[block.Hash]; ok {
			return nil, ErrChainNotValid
		}
		seen[block.Hash] = struct{}{}

		blocks = append(blocks, block)

		if block.Offset == 0 {
			break
		}
	}

	// The iterator runs tail to genesis.
	for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}

	c := &Chain{chain: blocks}
	if err := c.Validate(); err != nil {
		return nil, ErrChainNotValid
	}

	return c, nil
}

// Close releases the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func openDB(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "LOCK") {
			if db, err = retry(dir, opts); err == nil {
				return db, nil
			}
		}

		return nil, errors.Wrapf(err, "open ledger in %s", dir)
	}

	return db, nil
}

func retry(dir string, originalOpts badger.Options) (*badger.DB, error) {
	lockPath := filepath.Join(dir, "LOCK")

	if err := os.Remove(lockPath); err != nil {
		return nil, errors.Wrap(err, `removing "LOCK"`)
	}

	retryOpts := originalOpts
	retryOpts.Truncate = true

	return badger.Open(retryOpts)
}
