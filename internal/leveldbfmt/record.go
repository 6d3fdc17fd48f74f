// Package leveldbfmt decodes the two on-disk LevelDB file formats Chromium
// uses — sorted tables (.ldb/.sst) and write-ahead logs (.log) — into a flat
// sequence of physical records. It has no notion of a merged or sorted view
// across files; that's the caller's job.
package leveldbfmt

import "encoding/binary"

// Origin identifies which physical file format produced a Record.
type Origin int

const (
	// OriginTable marks a record read from a sorted-table file.
	OriginTable Origin = iota
	// OriginLog marks a record read from a write-ahead log file.
	OriginLog
)

func (o Origin) String() string {
	switch o {
	case OriginTable:
		return "table"
	case OriginLog:
		return "log"
	default:
		return "unknown"
	}
}

// State is the tombstone state of a record.
type State int

const (
	// StateUnknown is used for table records with len(key) <= 8, whose tag
	// byte is not consulted, and for log records whose state byte is
	// neither 0 nor 1.
	StateUnknown State = iota
	StateLive
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StateLive:
		return "live"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Record is the sole public entity this package produces. Key and Value are
// freshly allocated for each record (UserKey is a subslice of Key), so a
// Record stays valid after the decoder that produced it advances.
type Record struct {
	Key     []byte
	UserKey []byte
	Value   []byte
	Seq     uint64
	State   State
	Origin  Origin
}

// tableRecordFields derives UserKey, State and Seq for a raw table-file key.
// A key shorter than 8 bytes has no complete trailer: its state is Unknown,
// its seq is 0 and its UserKey is the whole key. A key of exactly 8 bytes is
// all trailer: its state is also Unknown (the tag byte is not consulted), but
// its sequence number is decoded and its UserKey is stripped of the trailing
// 8 bytes, same as any other len(key) >= 8 key.
func tableRecordFields(key []byte) (userKey []byte, state State, seq uint64) {
	if len(key) < 8 {
		return key, StateUnknown, 0
	}
	trailer := binary.LittleEndian.Uint64(key[len(key)-8:])
	_, seq = decodeTrailer(trailer)
	if len(key) == 8 {
		return key[:0], StateUnknown, seq
	}
	tag := key[len(key)-8]
	state = StateDeleted
	if tag != 0 {
		state = StateLive
	}
	return key[:len(key)-8], state, seq
}

// decodeTrailer splits the 8-byte little-endian trailer appended to every
// table-file key: bits 0-7 are the tombstone tag (0 = deleted, 1 = live),
// bits 8-63 (little-endian) are the 56-bit sequence number.
func decodeTrailer(trailer uint64) (tag byte, seq uint64) {
	return byte(trailer), trailer >> 8
}

// newTableRecord builds a Record from a raw (key, value) pair decoded out of
// a table-file data block.
func newTableRecord(key, value []byte) Record {
	userKey, state, seq := tableRecordFields(key)
	return Record{
		Key:     key,
		UserKey: userKey,
		Value:   value,
		Seq:     seq,
		State:   state,
		Origin:  OriginTable,
	}
}
