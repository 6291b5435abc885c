package chainy

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgraph-io/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbroman/chainy/internal/util"
)

func newTestChain(t *testing.T, entries ...string) *Chain {
	t.Helper()

	c, err := New()
	require.NoError(t, err)
	for _, data := range entries {
		require.NoError(t, c.Entry(data))
	}

	return c
}

func TestLedgerArchiveRestore(t *testing.T) {
	c := newTestChain(t, "foo", "bar", "baz")
	dir := filepath.Join(t.TempDir(), "ledger")

	ledger, err := OpenLedger(dir)
	require.NoError(t, err)
	require.NoError(t, ledger.Archive(c))
	require.NoError(t, ledger.Close())

	ledger, err = ContinueLedger(dir)
	require.NoError(t, err)
	defer ledger.Close()

	c2, err := ledger.Chain()
	require.NoError(t, err)
	assert.Equal(t, c.Blocks(), c2.Blocks())
}

func TestLedgerArchiveResumes(t *testing.T) {
	c := newTestChain(t, "foo")
	dir := filepath.Join(t.TempDir(), "ledger")

	ledger, err := OpenLedger(dir)
	require.NoError(t, err)
	defer ledger.Close()

	require.NoError(t, ledger.Archive(c))

	// Grow the chain and archive again: only the new blocks move.
	require.NoError(t, c.Entry("bar"))
	require.NoError(t, ledger.Archive(c))

	c2, err := ledger.Chain()
	require.NoError(t, err)
	assert.Equal(t, c.Blocks(), c2.Blocks())
}

func TestLedgerGetByID(t *testing.T) {
	c := newTestChain(t, "foo")
	dir := filepath.Join(t.TempDir(), "ledger")

	ledger, err := OpenLedger(dir)
	require.NoError(t, err)
	defer ledger.Close()

	require.NoError(t, ledger.Archive(c))

	want := c.Blocks()[1]
	id, err := util.BlockID(want.Hash)
	require.NoError(t, err)

	got, err := ledger.Get(id)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ledger.Get("1111")
	assert.Error(t, err)
}

func TestLedgerAppendRejectsBrokenLink(t *testing.T) {
	c := newTestChain(t)
	dir := filepath.Join(t.TempDir(), "ledger")

	ledger, err := OpenLedger(dir)
	require.NoError(t, err)
	defer ledger.Close()

	require.NoError(t, ledger.Append(c.Blocks()[0]))

	forged, err := NewBlock(2, "foo", GenesisHash)
	require.NoError(t, err)
	assert.ErrorIs(t, ledger.Append(forged), ErrChainNotValid)
}

func TestLedgerAppendRequiresGenesisFirst(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ledger")

	ledger, err := OpenLedger(dir)
	require.NoError(t, err)
	defer ledger.Close()

	stray, err := NewBlock(2, "foo", "deadbeef")
	require.NoError(t, err)
	assert.ErrorIs(t, ledger.Append(stray), ErrChainNotValid)
}

func TestOpenLedgerRefusesExisting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ledger")

	ledger, err := OpenLedger(dir)
	require.NoError(t, err)
	require.NoError(t, ledger.Close())

	_, err = OpenLedger(dir)
	assert.Error(t, err)

	_, err = ContinueLedger(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLedgerChainRejectsTamperedRecord(t *testing.T) {
	c := newTestChain(t, "foo", "bar")
	dir := filepath.Join(t.TempDir(), "ledger")

	ledger, err := OpenLedger(dir)
	require.NoError(t, err)
	defer ledger.Close()

	require.NoError(t, ledger.Archive(c))

	// Rewrite the tail record in place without resealing its hash.
	tail := *c.Blocks()[2]
	tail.Data = "evil"
	data, err := tail.Serialize()
	require.NoError(t, err)

	key, err := util.BlockKey(tail.Hash)
	require.NoError(t, err)
	require.NoError(t, ledger.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	}))

	_, err = ledger.Chain()
	assert.ErrorIs(t, err, ErrChainNotValid)
}

func TestLedgerChainRejectsCyclicLinks(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ledger")

	ledger, err := OpenLedger(dir)
	require.NoError(t, err)
	defer ledger.Close()

	// Two records pointing at each other: the walk must fail, not hang.
	h1 := strings.Repeat("ab", 20)
	h2 := strings.Repeat("cd", 20)
	a := &Block{Offset: 2, Data: "a", Timestamp: 1, Hash: h1, PrevHash: h2}
	b := &Block{Offset: 3, Data: "b", Timestamp: 1, Hash: h2, PrevHash: h1}

	for _, blk := range []*Block{a, b} {
		data, err := blk.Serialize()
		require.NoError(t, err)
		key, err := util.BlockKey(blk.Hash)
		require.NoError(t, err)
		require.NoError(t, ledger.db.Update(func(txn *badger.Txn) error {
			return txn.Set(key, data)
		}))
	}

	tail, err := util.BlockKey(h1)
	require.NoError(t, err)
	require.NoError(t, ledger.db.Update(func(txn *badger.Txn) error {
		return txn.Set(lastHashKey, tail)
	}))
	ledger.LastHash = tail

	_, err = ledger.Chain()
	assert.ErrorIs(t, err, ErrChainNotValid)
}

func TestEmptyLedgerHasNoChain(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ledger")

	ledger, err := OpenLedger(dir)
	require.NoError(t, err)
	defer ledger.Close()

	_, err = ledger.Chain()
	assert.ErrorIs(t, err, ErrEmptyChain)
}
