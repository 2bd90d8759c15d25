package utxo

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-vesting/internal/storage"
	"github.com/Klingon-tech/klingnet-vesting/pkg/tx"
	"github.com/Klingon-tech/klingnet-vesting/pkg/types"
)

// ErrNotFound is returned when an outpoint has no unspent output.
var ErrNotFound = errors.New("utxo not found")

// Key prefixes for the UTXO store.
var (
	prefixUTXO  = []byte("u/") // u/<txid><index> -> UTXO JSON
	prefixAddr  = []byte("a/") // a/<len><address><txid><index> -> empty
	prefixOwner = []byte("o/") // o/<keyhash28><txid><index> -> empty
)

const outpointSize = types.HashSize + 4

// OwnerFunc reports the key hash a script output is held for, if any.
type OwnerFunc func(out tx.Output) (types.KeyHash, bool)

// Option configures a Store.
type Option func(*Store)

// WithOwnerIndex indexes outputs by the owner fn extracts from them.
func WithOwnerIndex(fn OwnerFunc) Option {
	return func(s *Store) { s.owner = fn }
}

// Store implements Set backed by a storage.DB.
type Store struct {
	db    storage.DB
	owner OwnerFunc
}

// NewStore creates a new UTXO store backed by the given database.
func NewStore(db storage.DB, opts ...Option) *Store {
	s := &Store{db: db}
	for _, o := range opts {
		o(s)
	}
	return s
}

func appendOutpoint(key []byte, op types.Outpoint) []byte {
	key = append(key, op.TxID[:]...)
	return binary.BigEndian.AppendUint32(key, op.Index)
}

func outpointFromKey(key []byte) (types.Outpoint, bool) {
	if len(key) < outpointSize {
		return types.Outpoint{}, false
	}
	tail := key[len(key)-outpointSize:]
	var op types.Outpoint
	copy(op.TxID[:], tail[:types.HashSize])
	op.Index = binary.BigEndian.Uint32(tail[types.HashSize:])
	return op, true
}

func utxoKey(op types.Outpoint) []byte {
	return appendOutpoint(append([]byte{}, prefixUTXO...), op)
}

// addrPrefix is length-prefixed so a 29-byte address never prefixes a
// 57-byte one.
func addrPrefix(addr types.Address) []byte {
	raw := addr.Bytes()
	key := append([]byte{}, prefixAddr...)
	key = append(key, byte(len(raw)))
	return append(key, raw...)
}

func addrKey(addr types.Address, op types.Outpoint) []byte {
	return appendOutpoint(addrPrefix(addr), op)
}

func ownerPrefix(k types.KeyHash) []byte {
	return append(append([]byte{}, prefixOwner...), k[:]...)
}

func ownerKey(k types.KeyHash, op types.Outpoint) []byte {
	return appendOutpoint(ownerPrefix(k), op)
}

// Get retrieves a UTXO by its outpoint.
func (s *Store) Get(outpoint types.Outpoint) (*UTXO, error) {
	data, err := s.db.Get(utxoKey(outpoint))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, outpoint)
	}
	if err != nil {
		return nil, fmt.Errorf("utxo get: %w", err)
	}
	var u UTXO
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("utxo unmarshal: %w", err)
	}
	return &u, nil
}

// GetOutput implements tx.UTXOProvider.
func (s *Store) GetOutput(outpoint types.Outpoint) (tx.Output, error) {
	u, err := s.Get(outpoint)
	if errors.Is(err, ErrNotFound) {
		return tx.Output{}, fmt.Errorf("%w: %s", tx.ErrInputNotFound, outpoint)
	}
	if err != nil {
		return tx.Output{}, err
	}
	return u.Output, nil
}

// Put stores a UTXO and updates the secondary indexes.
func (s *Store) Put(u *UTXO) error {
	b := storage.NewBatch(s.db)
	if err := s.put(b, u); err != nil {
		return err
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("utxo put: %w", err)
	}
	return nil
}

func (s *Store) put(b storage.Batch, u *UTXO) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("utxo marshal: %w", err)
	}
	if err := b.Put(utxoKey(u.Input), data); err != nil {
		return err
	}
	if err := b.Put(addrKey(u.Output.Address, u.Input), []byte{}); err != nil {
		return err
	}
	if s.owner != nil {
		if k, ok := s.owner(u.Output); ok {
			if err := b.Put(ownerKey(k, u.Input), []byte{}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) del(b storage.Batch, outpoint types.Outpoint) error {
	// Read first to clean up secondary indexes.
	u, err := s.Get(outpoint)
	if err == nil {
		if err := b.Delete(addrKey(u.Output.Address, outpoint)); err != nil {
			return err
		}
		if s.owner != nil {
			if k, ok := s.owner(u.Output); ok {
				if err := b.Delete(ownerKey(k, outpoint)); err != nil {
					return err
				}
			}
		}
	}
	return b.Delete(utxoKey(outpoint))
}

// Apply atomically removes spent and stores created.
func (s *Store) Apply(spent []types.Outpoint, created []*UTXO) error {
	b := storage.NewBatch(s.db)
	for _, op := range spent {
		if err := s.del(b, op); err != nil {
			return fmt.Errorf("utxo apply: %w", err)
		}
	}
	for _, u := range created {
		if err := s.put(b, u); err != nil {
			return fmt.Errorf("utxo apply: %w", err)
		}
	}
	if err := b.Commit(); err != nil {
		return fmt.Errorf("utxo apply: %w", err)
	}
	return nil
}

// ForEach iterates over all UTXOs in the store.
func (s *Store) ForEach(fn func(*UTXO) error) error {
	return s.db.ForEach(prefixUTXO, func(_, value []byte) error {
		var u UTXO
		if err := json.Unmarshal(value, &u); err != nil {
			return fmt.Errorf("utxo unmarshal: %w", err)
		}
		return fn(&u)
	})
}

// GetByAddress returns all UTXOs held at addr.
func (s *Store) GetByAddress(addr types.Address) ([]*UTXO, error) {
	utxos, err := s.scan(addrPrefix(addr))
	if err != nil {
		return nil, fmt.Errorf("scan address index: %w", err)
	}
	return utxos, nil
}

// GetByOwner returns all UTXOs the owner index attributes to k.
// Empty when the store has no owner index.
func (s *Store) GetByOwner(k types.KeyHash) ([]*UTXO, error) {
	if s.owner == nil {
		return nil, nil
	}
	utxos, err := s.scan(ownerPrefix(k))
	if err != nil {
		return nil, fmt.Errorf("scan owner index: %w", err)
	}
	return utxos, nil
}

func (s *Store) scan(prefix []byte) ([]*UTXO, error) {
	var utxos []*UTXO
	err := s.db.ForEach(prefix, func(key, _ []byte) error {
		op, ok := outpointFromKey(key[len(prefix):])
		if !ok {
			return nil // Malformed key, skip.
		}
		u, err := s.Get(op)
		if err != nil {
			return nil // UTXO may have been spent, skip.
		}
		utxos = append(utxos, u)
		return nil
	})
	return utxos, err
}

// Count returns the number of UTXOs in the store.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.ForEach(prefixUTXO, func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

// ClearAll removes all UTXOs and their indexes.
func (s *Store) ClearAll() error {
	b := storage.NewBatch(s.db)
	for _, prefix := range [][]byte{prefixUTXO, prefixAddr, prefixOwner} {
		if err := s.db.ForEach(prefix, func(key, _ []byte) error {
			return b.Delete(key)
		}); err != nil {
			return fmt.Errorf("scan prefix %s: %w", prefix, err)
		}
	}
	return b.Commit()
}
