package leveldbfmt

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// entry is a pre-prefix-compression (key, value) pair used to build a
// synthetic data block for tests.
type entry struct {
	key, value []byte
}

// buildDataBlock encodes entries with LevelDB-style shared-prefix
// compression and a trailing restart-point array, every entry its own
// restart point (the simplest valid encoding, and the one real writers use
// for small blocks).
func buildDataBlock(entries []entry) []byte {
	var buf bytes.Buffer
	var restarts []uint32
	var prev []byte
	for _, e := range entries {
		restarts = append(restarts, uint32(buf.Len()))
		buf.Write(encodeVarint(0)) // shared = 0: every entry is its own restart
		buf.Write(encodeVarint(uint64(len(e.key))))
		buf.Write(encodeVarint(uint64(len(e.value))))
		buf.Write(e.key)
		buf.Write(e.value)
		prev = e.key
	}
	_ = prev
	for _, r := range restarts {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], r)
		buf.Write(b[:])
	}
	var count [4]byte
	binary.LittleEndian.PutUint32(count[:], uint32(len(restarts)))
	buf.Write(count[:])
	return buf.Bytes()
}

func TestBlockIterReadsAllEntries(t *testing.T) {
	entries := []entry{
		{[]byte("alpha"), []byte("1")},
		{[]byte("bravo"), []byte("2")},
		{[]byte("charlie"), []byte("3")},
	}
	block := buildDataBlock(entries)

	it, err := newBlockIter(block)
	if err != nil {
		t.Fatalf("newBlockIter() error = %v", err)
	}
	var got []entry
	for it.Next() {
		got = append(got, entry{
			key:   append([]byte(nil), it.Key()...),
			value: append([]byte(nil), it.Value()...),
		})
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("got %d entries, want %d", len(got), len(entries))
	}
	for i, e := range entries {
		if !bytes.Equal(got[i].key, e.key) || !bytes.Equal(got[i].value, e.value) {
			t.Errorf("entry %d = %q/%q, want %q/%q", i, got[i].key, got[i].value, e.key, e.value)
		}
	}
}

func TestBlockIterSharedPrefix(t *testing.T) {
	// Hand-build a block where the second entry shares a prefix with the
	// first, the way a real writer with restart interval > 1 would encode it.
	var buf bytes.Buffer
	buf.Write(encodeVarint(0))
	buf.Write(encodeVarint(3))
	buf.Write(encodeVarint(1))
	buf.WriteString("foo")
	buf.WriteString("1")

	buf.Write(encodeVarint(2)) // shares "fo" with "foo"
	buf.Write(encodeVarint(2))
	buf.Write(encodeVarint(1))
	buf.WriteString("od")
	buf.WriteString("2")

	var restart0, restart1 [4]byte
	binary.LittleEndian.PutUint32(restart0[:], 0)
	// second entry is not a restart point, so only restart0 is recorded
	buf.Write(restart0[:])
	_ = restart1
	var count [4]byte
	binary.LittleEndian.PutUint32(count[:], 1)
	buf.Write(count[:])

	it, err := newBlockIter(buf.Bytes())
	if err != nil {
		t.Fatalf("newBlockIter() error = %v", err)
	}
	if !it.Next() {
		t.Fatalf("Next() = false on first entry")
	}
	if string(it.Key()) != "foo" {
		t.Errorf("first key = %q, want %q", it.Key(), "foo")
	}
	if !it.Next() {
		t.Fatalf("Next() = false on second entry")
	}
	if string(it.Key()) != "food" {
		t.Errorf("second key = %q, want %q (shared prefix \"fo\" + suffix \"od\")", it.Key(), "food")
	}
	if it.Next() {
		t.Fatalf("Next() = true after last entry")
	}
}

func TestBlockIterTooShortIsCorrupt(t *testing.T) {
	_, err := newBlockIter([]byte{0, 1})
	if err != errCorruptBlock {
		t.Fatalf("newBlockIter() error = %v, want errCorruptBlock", err)
	}
}

func TestBlockIterEmptyBlock(t *testing.T) {
	block := buildDataBlock(nil)
	it, err := newBlockIter(block)
	if err != nil {
		t.Fatalf("newBlockIter() error = %v", err)
	}
	if it.Next() {
		t.Fatalf("Next() = true on empty block")
	}
	if err := it.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}
}
