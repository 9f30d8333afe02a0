package journal

import (
	"errors"
	"fmt"
	"os"

	"github.com/calvinalkan/journal/pkg/journal/internal/jfs"
)

// dataFile manages Path/Name.dat: creation, open-time scan/repair, and
// appending new records (spec §4.2).
type dataFile struct {
	f jfs.File
}

// createDataFile creates a new, empty data file at path. It fails if the
// file already exists.
func createDataFile(fsys jfs.FS, path string) error {
	f, err := fsys.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create data file: %w", ErrDataOpen, err)
	}

	defer f.Close()

	_, err = f.WriteAt(encodeFileHeader(newFileHeader("journal data file")), 0)
	if err != nil {
		return fmt.Errorf("%w: write data header: %w", ErrDataWrite, err)
	}

	return f.Sync()
}

// openDataFile opens an existing data file read/write and validates its
// header. It does not scan records; call scanFirst for that.
func openDataFile(fsys jfs.FS, path string) (*dataFile, error) {
	f, err := fsys.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open data file: %w", ErrDataOpen, err)
	}

	buf := make([]byte, headerSize)

	_, err = f.ReadAt(buf, 0)
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("%w: read data header: %w", ErrDataRead, err)
	}

	_, err = validateFileHeader(buf)
	if err != nil {
		f.Close()

		return nil, err
	}

	return &dataFile{f: f}, nil
}

func (d *dataFile) Close() error {
	return d.f.Close()
}

func (d *dataFile) size() (int64, error) {
	return fileSize(d.f)
}

// scanFirst reads and verifies the first data record, if any.
//
// ok is false when the file has no records, or when the first record is
// truncated, garbage, or has seqnum=0 - in all these cases the tail from
// headerSize onward is zero-filled and the journal is empty.
func (d *dataFile) scanFirst() (rec dataRecordHeader, ok bool, err error) {
	size, err := d.size()
	if err != nil {
		return dataRecordHeader{}, false, err
	}

	if size <= headerSize {
		return dataRecordHeader{}, false, nil
	}

	hdrBuf := make([]byte, dataRecordHeaderSize)

	n, _ := d.f.ReadAt(hdrBuf, headerSize)
	if n < dataRecordHeaderSize {
		return dataRecordHeader{}, false, zeroFill(d.f, headerSize, size)
	}

	rec = decodeDataRecordHeader(hdrBuf)
	if rec.Seqnum == 0 {
		return dataRecordHeader{}, false, zeroFill(d.f, headerSize, size)
	}

	span := recordSpan(rec.DataLen)
	if headerSize+span > size {
		return dataRecordHeader{}, false, zeroFill(d.f, headerSize, size)
	}

	payload := make([]byte, rec.DataLen)

	_, err = d.f.ReadAt(payload, headerSize+dataRecordHeaderSize)
	if err != nil {
		return dataRecordHeader{}, false, zeroFill(d.f, headerSize, size)
	}

	if recordChecksum(rec.Seqnum, rec.Timestamp, rec.DataLen, payload) != rec.Checksum {
		return dataRecordHeader{}, false, zeroFill(d.f, headerSize, size)
	}

	return rec, true, nil
}

// readRecord reads and decodes the record at pos, verifying its checksum.
// errTruncated is returned when fewer bytes remain in the file than the
// record's declared length requires.
func (d *dataFile) readRecord(pos, size int64) (dataRecordHeader, []byte, error) {
	if pos+dataRecordHeaderSize > size {
		return dataRecordHeader{}, nil, errTruncated
	}

	hdrBuf := make([]byte, dataRecordHeaderSize)

	_, err := d.f.ReadAt(hdrBuf, pos)
	if err != nil {
		return dataRecordHeader{}, nil, fmt.Errorf("%w: read record at %d: %w", ErrDataRead, pos, err)
	}

	rec := decodeDataRecordHeader(hdrBuf)
	if rec.isZero() {
		return dataRecordHeader{}, nil, errZeroRecord
	}

	span := recordSpan(rec.DataLen)
	if pos+span > size {
		return dataRecordHeader{}, nil, errTruncated
	}

	payload := make([]byte, rec.DataLen)

	_, err = d.f.ReadAt(payload, pos+dataRecordHeaderSize)
	if err != nil {
		return dataRecordHeader{}, nil, fmt.Errorf("%w: read payload at %d: %w", ErrDataRead, pos, err)
	}

	if recordChecksum(rec.Seqnum, rec.Timestamp, rec.DataLen, payload) != rec.Checksum {
		return dataRecordHeader{}, nil, ErrChecksumMismatch
	}

	return rec, payload, nil
}

// readRecordNoChecksum reads and decodes the record at pos without
// verifying its checksum, used by Stats which only needs data_len.
func (d *dataFile) readRecordNoChecksum(pos, size int64) (dataRecordHeader, []byte, error) {
	if pos+dataRecordHeaderSize > size {
		return dataRecordHeader{}, nil, errTruncated
	}

	hdrBuf := make([]byte, dataRecordHeaderSize)

	_, err := d.f.ReadAt(hdrBuf, pos)
	if err != nil {
		return dataRecordHeader{}, nil, fmt.Errorf("%w: read record at %d: %w", ErrDataRead, pos, err)
	}

	rec := decodeDataRecordHeader(hdrBuf)

	return rec, nil, nil
}

// errTruncated signals that a record's declared length runs past the end
// of the file - a torn write, recoverable by zero-filling from its start.
var errTruncated = errors.New("journal: truncated record")

// errZeroRecord signals an all-zero (unused) record slot - the natural
// end of the written region.
var errZeroRecord = errors.New("journal: zero record")

// scanForward walks records starting at pos (which must already be a
// verified record boundary immediately following a record with seqnum
// prevSeqnum/timestamp prevTimestamp), validating monotonicity and
// (always) checksums, until it reaches end of file, a truncated/zero
// record (silently repaired by zero-filling), or a semantic violation.
//
// It returns the seqnum/timestamp of the last good record seen and the
// resulting high-water mark (dat_end).
func (d *dataFile) scanForward(pos, size int64, prevSeqnum, prevTimestamp uint64, onRecord func(pos int64, rec dataRecordHeader) error) (lastSeqnum, lastTimestamp uint64, end int64, err error) {
	lastSeqnum, lastTimestamp = prevSeqnum, prevTimestamp

	for pos < size {
		rec, _, rerr := d.readRecord(pos, size)
		if rerr != nil {
			if errors.Is(rerr, errTruncated) || errors.Is(rerr, errZeroRecord) {
				if zerr := zeroFill(d.f, pos, size); zerr != nil {
					return 0, 0, 0, zerr
				}

				return lastSeqnum, lastTimestamp, pos, nil
			}

			if errors.Is(rerr, ErrChecksumMismatch) {
				return 0, 0, 0, ErrChecksumMismatch
			}

			return 0, 0, 0, rerr
		}

		if rec.Seqnum != lastSeqnum+1 || rec.Timestamp < lastTimestamp {
			return 0, 0, 0, fmt.Errorf("record at %d: seqnum/timestamp out of sequence: %w", pos, ErrInvalidDataFormat)
		}

		if onRecord != nil {
			if cerr := onRecord(pos, rec); cerr != nil {
				return 0, 0, 0, cerr
			}
		}

		lastSeqnum, lastTimestamp = rec.Seqnum, rec.Timestamp
		pos += recordSpan(rec.DataLen)
	}

	return lastSeqnum, lastTimestamp, pos, nil
}

// appendRecord writes a fully-resolved record (seqnum/timestamp already
// assigned) at offset pos and returns the resulting dat_end.
func (d *dataFile) appendRecord(pos int64, seqnum, timestamp uint64, payload []byte) (int64, error) {
	dataLen := uint32(len(payload))
	checksum := recordChecksum(seqnum, timestamp, dataLen, payload)

	hdr := encodeDataRecordHeader(dataRecordHeader{
		Seqnum:    seqnum,
		Timestamp: timestamp,
		DataLen:   dataLen,
		Checksum:  checksum,
	})

	_, err := d.f.WriteAt(hdr, pos)
	if err != nil {
		return 0, fmt.Errorf("%w: write record header: %w", ErrDataWrite, err)
	}

	if dataLen > 0 {
		_, err = d.f.WriteAt(payload, pos+dataRecordHeaderSize)
		if err != nil {
			return 0, fmt.Errorf("%w: write record payload: %w", ErrDataWrite, err)
		}
	}

	pad := padLen(dataLen)
	if pad > 0 {
		_, err = d.f.WriteAt(zeroChunk[:pad], pos+dataRecordHeaderSize+int64(dataLen))
		if err != nil {
			return 0, fmt.Errorf("%w: write record pad: %w", ErrDataWrite, err)
		}
	}

	return pos + recordSpan(dataLen), nil
}
