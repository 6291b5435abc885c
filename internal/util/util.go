package util

import (
	"encoding/hex"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// BlockKey converts a hex digest into the raw bytes used as ledger keys.
func BlockKey(hash string) ([]byte, error) {
	key, err := hex.DecodeString(hash)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed digest %q", hash)
	}

	return key, nil
}

// BlockID renders a hex digest as a compact base58 block id.
func BlockID(hash string) (string, error) {
	key, err := BlockKey(hash)
	if err != nil {
		return "", err
	}

	return base58.Encode(key), nil
}

// DecodeID converts a base58 block id back into raw ledger key bytes.
func DecodeID(id string) ([]byte, error) {
	key, err := base58.Decode(id)
	if err != nil {
		return nil, errors.Wrapf(err, "malformed block id %q", id)
	}

	return key, nil
}
