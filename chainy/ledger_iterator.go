package chainy

import (
	"github.com/dgraph-io/badger"
	"github.com/pkg/errors"

	"github.com/fbroman/chainy/internal/util"
)

// LedgerIterator walks the ledger in reverse order, from the tail back to
// the genesis block.
type LedgerIterator struct {
	CurrentHash []byte
	db          *badger.DB
}

// Iterator returns an iterator positioned at the ledger tail. The caller
// stops after the genesis block is returned.
func (l *Ledger) Iterator() *LedgerIterator {
	return &LedgerIterator{l.LastHash, l.db}
}

// Next returns the block at the current position and steps to its
// predecessor.
func (iter *LedgerIterator) Next() (*Block, error) {
	var block *Block

	err := iter.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(iter.CurrentHash)
		if err == badger.ErrKeyNotFound {
			return errors.Errorf("block %x is not found", iter.CurrentHash)
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

	prev, err := util.BlockKey(block.PrevHash)
	if err != nil {
		return nil, err
	}

	iter.CurrentHash = prev

	return block, nil
}
