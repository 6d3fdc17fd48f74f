package leveldbfmt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"chromedbscan.dev/chromedbscan/internal/varint"
)

// errCorruptBlock marks a data block whose restart footer or entry stream is
// internally inconsistent. Table-reader callers treat this as file-fatal,
// same as a bad footer magic.
var errCorruptBlock = errors.New("leveldbfmt: corrupt data block")

// blockIter iterates the prefix-compressed (key, value) entries of a fully
// decompressed data block, rebuilding each key from the shared prefix of the
// previous one. Grounded on the blockIter shape in
// other_examples/ddfc5826_bmwan-leveldb__leveldb-table-reader.go.go, adapted
// from random-access seek+iterate to straight-through iteration since this
// scanner never needs to seek to a specific key.
type blockIter struct {
	r        *bytes.Reader
	prevKey  []byte
	key, val []byte
	err      error
	done     bool
}

// newBlockIter parses the restart footer of a decompressed data block and
// returns an iterator positioned before the first entry.
func newBlockIter(block []byte) (*blockIter, error) {
	if len(block) < 4 {
		return nil, errCorruptBlock
	}
	restartCount := int(binary.LittleEndian.Uint32(block[len(block)-4:]))
	restartArrayLen := restartCount * 4
	if restartArrayLen+4 > len(block) {
		return nil, errCorruptBlock
	}
	restartArrayOffset := len(block) - 4 - restartArrayLen
	firstEntryOffset := int(int32(binary.LittleEndian.Uint32(block[restartArrayOffset : restartArrayOffset+4])))
	if firstEntryOffset < 0 || firstEntryOffset > restartArrayOffset {
		return nil, errCorruptBlock
	}
	return &blockIter{
		r: bytes.NewReader(block[firstEntryOffset:restartArrayOffset]),
	}, nil
}

// Next advances to the next entry, returning false at the end of the entry
// region or on decode error (distinguishable via Err).
func (it *blockIter) Next() bool {
	if it.done || it.err != nil {
		return false
	}
	if it.r.Len() == 0 {
		it.done = true
		return false
	}

	shared, err := varint.Read(it.r, 5)
	if err != nil {
		it.err = err
		return false
	}
	nonShared, err := varint.Read(it.r, 5)
	if err != nil {
		it.err = err
		return false
	}
	valueLen, err := varint.Read(it.r, 5)
	if err != nil {
		it.err = err
		return false
	}
	if shared > uint64(len(it.prevKey)) {
		it.err = errCorruptBlock
		return false
	}

	suffix := make([]byte, nonShared)
	if _, err := io.ReadFull(it.r, suffix); err != nil {
		it.err = errCorruptBlock
		return false
	}
	value := make([]byte, valueLen)
	if _, err := io.ReadFull(it.r, value); err != nil {
		it.err = errCorruptBlock
		return false
	}

	key := make([]byte, 0, shared+nonShared)
	key = append(key, it.prevKey[:shared]...)
	key = append(key, suffix...)

	it.key = key
	it.val = value
	it.prevKey = key
	return true
}

func (it *blockIter) Key() []byte { return it.key }
func (it *blockIter) Value() []byte { return it.val }
func (it *blockIter) Err() error {
	if it.err == io.EOF {
		return nil
	}
	return it.err
}
