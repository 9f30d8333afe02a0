package journal

import "encoding/binary"

// On-disk layout constants (spec §6). All multi-byte integers are
// little-endian; structures are tightly packed with no compiler padding,
// so offsets below are explicit rather than derived from struct layout.
const (
	// journalMagic identifies both the data and index file formats.
	journalMagic = uint64(0x211ABF1A62646C00)

	// journalFormat is the only format version this package understands.
	journalFormat = uint32(1)

	// headerSize is the size in bytes of both the data and index header.
	headerSize = 128

	// headerTextSize is the size of the informational text field.
	headerTextSize = headerSize - 8 - 4 // magic(8) + format(4)

	// dataRecordHeaderSize is the fixed portion of a data record, before
	// its payload and pad bytes.
	dataRecordHeaderSize = 24

	// indexRecordSize is the fixed size of an index record.
	indexRecordSize = 24

	// wordSize is the pointer-size boundary records are padded to.
	wordSize = 8
)

// Header field offsets, identical for data and index headers.
const (
	offHdrMagic  = 0
	offHdrFormat = 8
	offHdrText   = 12
)

// Data record field offsets.
const (
	offRecSeqnum    = 0
	offRecTimestamp = 8
	offRecDataLen   = 16
	offRecChecksum  = 20
)

// Index record field offsets.
const (
	offIdxSeqnum    = 0
	offIdxTimestamp = 8
	offIdxPos       = 16
)

// fileHeader is the 128-byte header shared by the data and index files.
type fileHeader struct {
	Magic  uint64
	Format uint32
	Text   [headerTextSize]byte
}

func encodeFileHeader(h fileHeader) []byte {
	buf := make([]byte, headerSize)
	putUint64(buf[offHdrMagic:], h.Magic)
	putUint32(buf[offHdrFormat:], h.Format)
	copy(buf[offHdrText:], h.Text[:])

	return buf
}

func decodeFileHeader(buf []byte) fileHeader {
	var h fileHeader

	h.Magic = getUint64(buf[offHdrMagic:])
	h.Format = getUint32(buf[offHdrFormat:])
	copy(h.Text[:], buf[offHdrText:headerSize])

	return h
}

// newFileHeader builds a header with the standard magic/format and the
// given informational text, truncated/zero-padded to fit.
func newFileHeader(text string) fileHeader {
	var h fileHeader

	h.Magic = journalMagic
	h.Format = journalFormat
	n := copy(h.Text[:], text)
	_ = n

	return h
}

// validateFileHeader checks the magic and format fields. It does not
// distinguish between data and index use: both files must carry
// journalMagic and journalFormat.
func validateFileHeader(buf []byte) (fileHeader, error) {
	if len(buf) < headerSize {
		return fileHeader{}, ErrInvalidDataFormat
	}

	h := decodeFileHeader(buf)
	if h.Magic != journalMagic {
		return fileHeader{}, ErrInvalidDataFormat
	}

	if h.Format != journalFormat {
		return fileHeader{}, ErrInvalidDataFormat
	}

	return h, nil
}

// dataRecordHeader is the fixed 24-byte prefix of a data record.
type dataRecordHeader struct {
	Seqnum    uint64
	Timestamp uint64
	DataLen   uint32
	Checksum  uint32
}

func encodeDataRecordHeader(r dataRecordHeader) []byte {
	buf := make([]byte, dataRecordHeaderSize)
	putUint64(buf[offRecSeqnum:], r.Seqnum)
	putUint64(buf[offRecTimestamp:], r.Timestamp)
	putUint32(buf[offRecDataLen:], r.DataLen)
	putUint32(buf[offRecChecksum:], r.Checksum)

	return buf
}

func decodeDataRecordHeader(buf []byte) dataRecordHeader {
	return dataRecordHeader{
		Seqnum:    getUint64(buf[offRecSeqnum:]),
		Timestamp: getUint64(buf[offRecTimestamp:]),
		DataLen:   getUint32(buf[offRecDataLen:]),
		Checksum:  getUint32(buf[offRecChecksum:]),
	}
}

// isZero reports whether a data record header slot is entirely unused
// (spec: "unused slots have seqnum=0").
func (r dataRecordHeader) isZero() bool {
	return r.Seqnum == 0 && r.Timestamp == 0 && r.DataLen == 0 && r.Checksum == 0
}

// indexRecord is a 24-byte index entry.
type indexRecord struct {
	Seqnum    uint64
	Timestamp uint64
	Pos       uint64
}

func encodeIndexRecord(r indexRecord) []byte {
	buf := make([]byte, indexRecordSize)
	putUint64(buf[offIdxSeqnum:], r.Seqnum)
	putUint64(buf[offIdxTimestamp:], r.Timestamp)
	putUint64(buf[offIdxPos:], r.Pos)

	return buf
}

func decodeIndexRecord(buf []byte) indexRecord {
	return indexRecord{
		Seqnum:    getUint64(buf[offIdxSeqnum:]),
		Timestamp: getUint64(buf[offIdxTimestamp:]),
		Pos:       getUint64(buf[offIdxPos:]),
	}
}

func (r indexRecord) isZero() bool {
	return r.Seqnum == 0 && r.Timestamp == 0 && r.Pos == 0
}

// padLen returns the number of zero pad bytes following a payload of the
// given length so the next record starts on a word-size boundary.
func padLen(dataLen uint32) uint32 {
	return (wordSize - dataLen%wordSize) % wordSize
}

// align8 rounds x up to the next multiple of the word size.
func align8(x uint32) uint32 {
	return (x + wordSize - 1) &^ (wordSize - 1)
}

// recordSpan returns the total on-disk size of a data record (header,
// payload, and pad) given its payload length.
func recordSpan(dataLen uint32) int64 {
	return int64(dataRecordHeaderSize) + int64(dataLen) + int64(padLen(dataLen))
}

// indexSlotPos returns the byte offset within the index file of the index
// record for seqnum, given the journal's first stored seqnum.
func indexSlotPos(seqnum1, seqnum uint64) int64 {
	return int64(headerSize) + int64(seqnum-seqnum1)*indexRecordSize
}

func putUint64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }
func putUint32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func getUint64(b []byte) uint64    { return binary.LittleEndian.Uint64(b) }
func getUint32(b []byte) uint32    { return binary.LittleEndian.Uint32(b) }
