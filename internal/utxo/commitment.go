package utxo

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/Klingon-tech/klingnet-vesting/pkg/crypto"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// Commitment computes a merkle root over all UTXOs in the store.
// Each UTXO is hashed deterministically, the hashes are sorted, and
// a merkle tree is built from them. Returns a zero hash for an empty set.
func Commitment(store *Store) (types.Hash, error) {
	var hashes []types.Hash

	err := store.ForEach(func(u *UTXO) error {
		hashes = append(hashes, hashUTXO(u))
		return nil
	})
	if err != nil {
		return types.Hash{}, fmt.Errorf("utxo commitment: %w", err)
	}

	sort.Slice(hashes, func(i, j int) bool {
		return bytes.Compare(hashes[i][:], hashes[j][:]) < 0
	})
	return merkleRoot(hashes), nil
}

// hashUTXO hashes the outpoint followed by the output's signing encoding.
func hashUTXO(u *UTXO) types.Hash {
	var buf []byte
	buf = append(buf, u.Input.TxID[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, u.Input.Index)
	buf = append(buf, u.Output.Address.Bytes()...)
	for _, a := range u.Output.Amount {
		buf = append(buf, a.Unit...)
		buf = binary.LittleEndian.AppendUint64(buf, a.Quantity)
	}
	buf = append(buf, u.Output.Datum...)
	return crypto.Hash(buf)
}

// merkleRoot pairs hashes level by level, duplicating the last one on
// odd levels.
func merkleRoot(hashes []types.Hash) types.Hash {
	if len(hashes) == 0 {
		return types.Hash{}
	}
	level := append([]types.Hash(nil), hashes...)
	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]types.Hash, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = crypto.Hash(append(level[i][:], level[i+1][:]...))
		}
		level = next
	}
	return level[0]
}
