package rawdb

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/units-io/units/core/codec"
	"github.com/units-io/units/core/types"
)

// FileObjectStore is the durable "file" config.storage.type backend: a
// single append-only WAL file backs every write, a flat-file-per-object
// layout under data/ mirrors current state for fast restart, and an
// in-memory MemoryStore serves reads — rebuilt from the WAL on open. This
// follows the teacher corpus's own flat-file-plus-WAL layout (hex-encoded
// object filenames, a LOCK file that is created and held open; no OS lock
// is taken on it, so it does not keep a second process out of dir)
// adapted from a generic key-value store to UNITS's proof-chained object
// model.
type FileObjectStore struct {
	mu      sync.Mutex
	dir     string
	dataDir string
	walFile *os.File
	lockFile *os.File
	mem     *MemoryStore
}

// OpenFileObjectStore opens (creating if necessary) a file-backed store
// rooted at dir, replaying its WAL to rebuild in-memory state.
func OpenFileObjectStore(dir string) (*FileObjectStore, error) {
	dataDir := filepath.Join(dir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("rawdb: create data dir: %w", err)
	}

	lockPath := filepath.Join(dir, "LOCK")
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("rawdb: acquire lock file: %w", err)
	}

	walPath := filepath.Join(dir, "wal.log")
	walFile, err := os.OpenFile(walPath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		lockFile.Close()
		return nil, fmt.Errorf("rawdb: open wal: %w", err)
	}

	fs := &FileObjectStore{
		dir:      dir,
		dataDir:  dataDir,
		walFile:  walFile,
		lockFile: lockFile,
		mem:      NewMemoryStore(),
	}
	if err := fs.replayInto(fs.mem); err != nil {
		walFile.Close()
		lockFile.Close()
		return nil, fmt.Errorf("rawdb: replay wal: %w", err)
	}
	return fs, nil
}

// Close releases the store's open file handles.
func (fs *FileObjectStore) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	err1 := fs.walFile.Close()
	err2 := fs.lockFile.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

func objectFilePath(dataDir string, id types.ObjectId) string {
	return filepath.Join(dataDir, hex.EncodeToString(id.Bytes())+".obj")
}

func (fs *FileObjectStore) appendRecord(rec WALRecord) error {
	w := codec.NewWriter(256)
	w.PutUint8(uint8(rec.Kind))
	switch rec.Kind {
	case WALUpdate:
		w.PutBytes(codec.EncodeObject(rec.Object))
		w.PutBytes(codec.EncodeObjectProof(rec.Proof))
		w.PutOptionalFixed(rec.TxHash != nil, optionalHashBytes(rec.TxHash))
	case WALDeletion:
		w.PutFixed(rec.ObjectID.Bytes())
		w.PutBytes(codec.EncodeObjectProof(rec.Proof))
		w.PutOptionalFixed(rec.TxHash != nil, optionalHashBytes(rec.TxHash))
	case WALStateProof:
		sp := rec.StateProof
		w.PutUint64(sp.Slot)
		w.PutOptionalFixed(sp.PrevStateProofHash != nil, optionalHashBytes(sp.PrevStateProofHash))
		w.PutUint32(uint32(len(sp.ObjectIDs)))
		for _, id := range sp.ObjectIDs {
			w.PutFixed(id.Bytes())
		}
		w.PutBytes(sp.ProofData)
	}

	payload := w.Bytes()
	frame := codec.NewWriter(4 + len(payload))
	frame.PutUint32(uint32(len(payload)))
	frame.PutFixed(payload)
	_, err := fs.walFile.Write(frame.Bytes())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return fs.walFile.Sync()
}

func optionalHashBytes(h *types.Hash) []byte {
	if h == nil {
		return nil
	}
	return h.Bytes()
}

func (fs *FileObjectStore) replayInto(mem *MemoryStore) error {
	if _, err := fs.walFile.Seek(0, 0); err != nil {
		return err
	}
	buf := make([]byte, 0)
	info, err := fs.walFile.Stat()
	if err != nil {
		return err
	}
	if info.Size() > 0 {
		buf = make([]byte, info.Size())
		if _, err := fs.walFile.ReadAt(buf, 0); err != nil {
			return err
		}
	}
	if _, err := fs.walFile.Seek(0, 2); err != nil {
		return err
	}

	r := codec.NewReader(buf)
	for r.Remaining() > 0 {
		length, err := r.Uint32()
		if err != nil {
			return nil // trailing partial frame from a torn write; stop replay
		}
		if int(length) > r.Remaining() {
			return nil
		}
		frame, err := r.Fixed(int(length))
		if err != nil {
			return err
		}
		if err := applyFrame(mem, frame); err != nil {
			return err
		}
	}
	return nil
}

func applyFrame(mem *MemoryStore, frame []byte) error {
	fr := codec.NewReader(frame)
	kind, err := fr.Uint8()
	if err != nil {
		return err
	}
	switch WALRecordKind(kind) {
	case WALUpdate:
		objRaw, err := fr.Bytes()
		if err != nil {
			return err
		}
		obj, err := codec.DecodeObject(objRaw)
		if err != nil {
			return err
		}
		proofRaw, err := fr.Bytes()
		if err != nil {
			return err
		}
		proof, err := codec.DecodeObjectProof(proofRaw)
		if err != nil {
			return err
		}
		txb, err := fr.OptionalFixed(32)
		if err != nil {
			return err
		}
		mem.mu.Lock()
		_, err = mem.setLocked(obj, proof.Slot, optionalHashFromBytes(txb))
		mem.mu.Unlock()
		return err
	case WALDeletion:
		idb, err := fr.Fixed(types.ObjectIdLength)
		if err != nil {
			return err
		}
		proofRaw, err := fr.Bytes()
		if err != nil {
			return err
		}
		proof, err := codec.DecodeObjectProof(proofRaw)
		if err != nil {
			return err
		}
		txb, err := fr.OptionalFixed(32)
		if err != nil {
			return err
		}
		mem.mu.Lock()
		_, err = mem.deleteLocked(types.BytesToObjectId(idb), proof.Slot, optionalHashFromBytes(txb))
		mem.mu.Unlock()
		return err
	case WALStateProof:
		// State proofs are rebuilt from object history on demand; skip.
	}
	return nil
}

func optionalHashFromBytes(b []byte) *types.Hash {
	if b == nil {
		return nil
	}
	h := types.BytesToHash(b)
	return &h
}

// Get delegates to the in-memory index built from the WAL.
func (fs *FileObjectStore) Get(id types.ObjectId) (*types.Object, bool, error) {
	return fs.mem.Get(id)
}

// Set updates the in-memory index (which mints the proof), then appends a
// WAL record carrying that proof, then writes the flat-file snapshot. If
// the WAL append or the snapshot write fails, the in-memory index keeps
// the change.
func (fs *FileObjectStore) Set(o *types.Object, slot uint64, txHash *types.Hash) (*types.ObjectProof, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p, err := fs.mem.Set(o, slot, txHash)
	if err != nil {
		return nil, err
	}
	if err := fs.appendRecord(WALRecord{Kind: WALUpdate, Object: o, Proof: p, TxHash: txHash}); err != nil {
		return nil, err
	}
	if err := os.WriteFile(objectFilePath(fs.dataDir, o.ID), codec.EncodeObject(o), 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return p, nil
}

// Delete updates the in-memory index (which mints the deletion proof),
// then appends a deletion WAL record, then removes the flat-file snapshot.
func (fs *FileObjectStore) Delete(id types.ObjectId, slot uint64, txHash *types.Hash) (*types.ObjectProof, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	p, err := fs.mem.Delete(id, slot, txHash)
	if err != nil {
		return nil, err
	}
	if err := fs.appendRecord(WALRecord{Kind: WALDeletion, ObjectID: id, Proof: p, TxHash: txHash}); err != nil {
		return nil, err
	}
	if err := os.Remove(objectFilePath(fs.dataDir, id)); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return p, nil
}

// SetBatch applies Set to every object under a single governing tx_hash.
func (fs *FileObjectStore) SetBatch(objs []*types.Object, slot uint64, txHash *types.Hash) ([]*types.ObjectProof, error) {
	out := make([]*types.ObjectProof, 0, len(objs))
	for _, o := range objs {
		p, err := fs.Set(o, slot, txHash)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// DeleteBatch applies Delete to every id under a single governing tx_hash.
func (fs *FileObjectStore) DeleteBatch(ids []types.ObjectId, slot uint64, txHash *types.Hash) ([]*types.ObjectProof, error) {
	out := make([]*types.ObjectProof, 0, len(ids))
	for _, id := range ids {
		p, err := fs.Delete(id, slot, txHash)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Iter delegates to the in-memory index.
func (fs *FileObjectStore) Iter(fn func(*types.Object) bool) error {
	return fs.mem.Iter(fn)
}

// HistoricalStorage and ProofStorage are served from the same in-memory
// index rebuilt at open time — only current-state writes take the WAL and
// flat-file path above. Proofs stored directly through StoreObjectProof or
// StoreStateProof are kept in memory only and are not replayed on open.
// FileObjectStore does not implement ReceiptStorage.

func (fs *FileObjectStore) GetAtSlot(id types.ObjectId, slot uint64) (*types.Object, bool, error) {
	return fs.mem.GetAtSlot(id, slot)
}

func (fs *FileObjectStore) GetHistory(id types.ObjectId, start, end uint64) ([]SlotObjectRecord, error) {
	return fs.mem.GetHistory(id, start, end)
}

func (fs *FileObjectStore) CompactHistory(beforeSlot uint64) (int, error) {
	return fs.mem.CompactHistory(beforeSlot)
}

func (fs *FileObjectStore) GetLatestProof(id types.ObjectId) (*types.ObjectProof, bool, error) {
	return fs.mem.GetLatestProof(id)
}

func (fs *FileObjectStore) GetProofHistory(id types.ObjectId, start, end *uint64) ([]*types.ObjectProof, error) {
	return fs.mem.GetProofHistory(id, start, end)
}

func (fs *FileObjectStore) StoreObjectProof(p *types.ObjectProof) error {
	return fs.mem.StoreObjectProof(p)
}

func (fs *FileObjectStore) StoreStateProof(sp *types.StateProof) error {
	return fs.mem.StoreStateProof(sp)
}

func (fs *FileObjectStore) GetStateProof(slot uint64) (*types.StateProof, bool, error) {
	return fs.mem.GetStateProof(slot)
}

func (fs *FileObjectStore) GetStateProofHistory(start, end uint64) ([]*types.StateProof, error) {
	return fs.mem.GetStateProofHistory(start, end)
}
