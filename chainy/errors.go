package chainy

import "errors"

var (
	// ErrClock means the wall clock produced a pre-epoch timestamp.
	ErrClock = errors.New("chainy: clock is before the unix epoch")
	// ErrDataTooLong means a payload exceeded MaxDataLen characters.
	ErrDataTooLong = errors.New("chainy: block data is > 64 chars")
	// ErrOffsetOverflow means the chain outgrew the offset range.
	ErrOffsetOverflow = errors.New("chainy: chain length exceeds offset range")
	// ErrBlockNotValid means a block's stored hash does not match its fields.
	ErrBlockNotValid = errors.New("chainy: block is not valid")
	// ErrChainNotValid means a bad genesis block or broken hash linkage.
	ErrChainNotValid = errors.New("chainy: chain is not valid")
	// ErrEmptyChain means an operation needed a tail block and found none.
	ErrEmptyChain = errors.New("chainy: chain has no blocks")
	// ErrDecode means persisted content does not parse into a chain.
	ErrDecode = errors.New("chainy: persisted chain is malformed")
)
