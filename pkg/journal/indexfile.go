package journal

import (
	"errors"
	"fmt"
	"os"

	"github.com/calvinalkan/journal/pkg/journal/internal/jfs"
)

// indexFile manages Path/Name.idx: creation, open-time cross-check against
// the data file, rebuild, and appending new index entries (spec §4.3).
type indexFile struct {
	f jfs.File
}

// createIndexFile creates a new, empty index file at path.
func createIndexFile(fsys jfs.FS, path string) error {
	f, err := fsys.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create index file: %w", ErrIndexOpen, err)
	}

	defer f.Close()

	_, err = f.WriteAt(encodeFileHeader(newFileHeader("journal index file")), 0)
	if err != nil {
		return fmt.Errorf("%w: write index header: %w", ErrIndexWrite, err)
	}

	return f.Sync()
}

func openIndexFile(fsys jfs.FS, path string) (*indexFile, error) {
	f, err := fsys.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open index file: %w", ErrIndexOpen, err)
	}

	buf := make([]byte, headerSize)

	_, err = f.ReadAt(buf, 0)
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("%w: read index header: %w", ErrIndexRead, err)
	}

	_, err = validateFileHeader(buf)
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("%w: %w", ErrInvalidIndexFormat, err)
	}

	return &indexFile{f: f}, nil
}

func (x *indexFile) Close() error {
	return x.f.Close()
}

func (x *indexFile) size() (int64, error) {
	return fileSize(x.f)
}

func (x *indexFile) readSlot(pos int64) (indexRecord, error) {
	buf := make([]byte, indexRecordSize)

	_, err := x.f.ReadAt(buf, pos)
	if err != nil {
		return indexRecord{}, fmt.Errorf("%w: read index slot at %d: %w", ErrIndexRead, pos, err)
	}

	return decodeIndexRecord(buf), nil
}

func (x *indexFile) writeSlot(pos int64, rec indexRecord) error {
	_, err := x.f.WriteAt(encodeIndexRecord(rec), pos)
	if err != nil {
		return fmt.Errorf("%w: write index slot at %d: %w", ErrIndexWrite, pos, err)
	}

	return nil
}

// appendEntry writes the index record for seqnum, which must equal the
// journal's current last seqnum + 1 (i.e. be the new tail).
func (x *indexFile) appendEntry(seqnum1, seqnum, timestamp uint64, pos int64) error {
	return x.writeSlot(indexSlotPos(seqnum1, seqnum), indexRecord{
		Seqnum:    seqnum,
		Timestamp: timestamp,
		Pos:       uint64(pos),
	})
}

// crossCheck validates the index against the data file's first record (if
// any), locates the index's own tail, catches the index up to any data
// records written after the last index flush, and returns the resulting
// journal state and data high-water mark.
//
// A non-nil error of class ErrInvalidIndexFormat means the caller should
// remove and recreate the index file and retry with check=true; any other
// error is fatal.
func (x *indexFile) crossCheck(d *dataFile, dataEmpty bool, firstSeqnum, firstTimestamp uint64, check bool) (State, int64, error) {
	idxSize, err := x.size()
	if err != nil {
		return State{}, 0, err
	}

	dataSize, err := d.size()
	if err != nil {
		return State{}, 0, err
	}

	if dataEmpty {
		if idxSize > headerSize {
			first, rerr := x.readSlot(headerSize)
			if rerr != nil {
				return State{}, 0, rerr
			}

			if !first.isZero() {
				return State{}, 0, fmt.Errorf("%w: index non-empty but data file is empty", ErrInvalidIndexFormat)
			}
		}

		return State{}, headerSize, nil
	}

	var (
		first   indexRecord
		lastRec indexRecord
		lastEnd int64
	)

	if idxSize < headerSize+indexRecordSize {
		// The index has no entries at all (e.g. freshly recreated by
		// Purge) while the data file is non-empty: seed the first entry
		// and let the reconciliation walk below populate the rest.
		first = indexRecord{Seqnum: firstSeqnum, Timestamp: firstTimestamp, Pos: headerSize}

		if err := x.appendEntry(firstSeqnum, firstSeqnum, firstTimestamp, headerSize); err != nil {
			return State{}, 0, err
		}

		idxSize = headerSize + indexRecordSize
		lastRec = first
		lastEnd = headerSize + indexRecordSize
	} else {
		var rerr error

		first, rerr = x.readSlot(headerSize)
		if rerr != nil {
			return State{}, 0, rerr
		}

		if first.Seqnum != firstSeqnum || first.Timestamp != firstTimestamp || first.Pos != headerSize {
			return State{}, 0, fmt.Errorf("%w: first index entry does not match data file", ErrInvalidIndexFormat)
		}

		lastRec, lastEnd, rerr = x.findTail(d, dataSize, first, idxSize, check)
		if rerr != nil {
			return State{}, 0, rerr
		}
	}

	if err := zeroFillIndexTail(x, lastEnd, idxSize); err != nil {
		return State{}, 0, err
	}

	lastDataLen, err := dataRecordHeaderAt(d, lastRec)
	if err != nil {
		return State{}, 0, err
	}

	dataEnd := int64(lastRec.Pos) + recordSpan(lastDataLen)

	// Reconcile data written after the last index flush (a crash between
	// data-flush and index-flush). This always re-verifies checksums,
	// independent of the outer check flag.
	seqnum1 := firstSeqnum

	newLastSeqnum, newLastTimestamp, newDataEnd, err := d.scanForward(dataEnd, dataSize, lastRec.Seqnum, lastRec.Timestamp,
		func(pos int64, rec dataRecordHeader) error {
			return x.appendEntry(seqnum1, rec.Seqnum, rec.Timestamp, pos)
		})
	if err != nil {
		return State{}, 0, err
	}

	state := State{
		Seqnum1:    firstSeqnum,
		Timestamp1: firstTimestamp,
		Seqnum2:    newLastSeqnum,
		Timestamp2: newLastTimestamp,
	}

	return state, newDataEnd, nil
}

// dataRecordHeaderAt re-reads a data record's header to recover its
// data_len, needed to compute the span of the last index-covered record.
func dataRecordHeaderAt(d *dataFile, rec indexRecord) (uint32, error) {
	hdr, _, err := d.readRecord(int64(rec.Pos), int64(rec.Pos)+dataRecordHeaderSize+maxPlausiblePayload)
	if err != nil {
		return 0, fmt.Errorf("re-read last indexed record: %w", err)
	}

	return hdr.DataLen, nil
}

// maxPlausiblePayload bounds the speculative read window dataRecordHeaderAt
// allows itself so a corrupt data_len field can't cause an enormous read;
// the checksum on the record already re-verifies whatever is found.
const maxPlausiblePayload = 1 << 30

// findTail locates the last non-zero index record.
func (x *indexFile) findTail(d *dataFile, dataSize int64, first indexRecord, idxSize int64, check bool) (indexRecord, int64, error) {
	if check {
		return x.findTailChecked(d, dataSize, first, idxSize)
	}

	return x.findTailFast(first, idxSize)
}

// findTailChecked walks every index record from the second slot forward,
// validating seqnum/timestamp/pos monotonicity and cross-checking each
// against the data file, stopping at the first zero slot.
func (x *indexFile) findTailChecked(d *dataFile, dataSize int64, first indexRecord, idxSize int64) (indexRecord, int64, error) {
	numSlots := (idxSize - headerSize) / indexRecordSize
	last := first
	lastEnd := int64(headerSize + indexRecordSize)

	for slot := int64(1); slot < numSlots; slot++ {
		pos := headerSize + slot*indexRecordSize

		rec, err := x.readSlot(pos)
		if err != nil {
			return indexRecord{}, 0, err
		}

		if rec.isZero() {
			break
		}

		if rec.Seqnum != last.Seqnum+1 || rec.Timestamp < last.Timestamp || rec.Pos < last.Pos+dataRecordHeaderSize {
			return indexRecord{}, 0, fmt.Errorf("%w: index entry at slot %d out of sequence", ErrInvalidIndexFormat, slot)
		}

		dataRec, _, err := d.readRecord(int64(rec.Pos), dataSize)
		if err != nil {
			return indexRecord{}, 0, fmt.Errorf("%w: index entry at slot %d: %w", ErrInvalidIndexFormat, slot, err)
		}

		if dataRec.Seqnum != rec.Seqnum || dataRec.Timestamp != rec.Timestamp {
			return indexRecord{}, 0, fmt.Errorf("%w: index entry at slot %d does not match data record", ErrInvalidIndexFormat, slot)
		}

		last = rec
		lastEnd = pos + indexRecordSize
	}

	return last, lastEnd, nil
}

// findTailFast skips straight to the last complete record boundary, then
// walks backward over trailing zero records to find the last non-zero one,
// without touching the data file.
func (x *indexFile) findTailFast(first indexRecord, idxSize int64) (indexRecord, int64, error) {
	// numSlots already reflects the last complete record boundary: any
	// trailing partial slot from a torn write is excluded by the
	// truncating division.
	numSlots := (idxSize - headerSize) / indexRecordSize

	last := first
	lastEnd := int64(headerSize + indexRecordSize)

	for slot := numSlots - 1; slot >= 1; slot-- {
		pos := headerSize + slot*indexRecordSize

		rec, err := x.readSlot(pos)
		if err != nil {
			return indexRecord{}, 0, err
		}

		if !rec.isZero() {
			last = rec
			lastEnd = pos + indexRecordSize

			break
		}
	}

	return last, lastEnd, nil
}

// zeroFillIndexTail blanks the index region after the last non-zero
// record (spec invariant 7).
func zeroFillIndexTail(x *indexFile, from, to int64) error {
	if from >= to {
		return nil
	}

	return zeroFill(x.f, from, to)
}

// rebuild removes and recreates the index file, then repopulates it by
// fully re-scanning the data file from its first record.
func rebuildIndexFile(fsys jfs.FS, path string, d *dataFile) (State, int64, error) {
	if err := fsys.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return State{}, 0, fmt.Errorf("%w: remove index for rebuild: %w", ErrIndexWrite, err)
	}

	if err := createIndexFile(fsys, path); err != nil {
		return State{}, 0, err
	}

	x, err := openIndexFile(fsys, path)
	if err != nil {
		return State{}, 0, err
	}

	defer x.Close()

	first, ok, err := d.scanFirst()
	if err != nil {
		return State{}, 0, err
	}

	if !ok {
		return State{}, headerSize, nil
	}

	if err := x.appendEntry(first.Seqnum, first.Seqnum, first.Timestamp, headerSize); err != nil {
		return State{}, 0, err
	}

	dataSize, err := d.size()
	if err != nil {
		return State{}, 0, err
	}

	lastSeqnum, lastTimestamp, dataEnd, err := d.scanForward(headerSize+recordSpan(first.DataLen), dataSize, first.Seqnum, first.Timestamp,
		func(pos int64, rec dataRecordHeader) error {
			return x.appendEntry(first.Seqnum, rec.Seqnum, rec.Timestamp, pos)
		})
	if err != nil {
		return State{}, 0, err
	}

	return State{
		Seqnum1:    first.Seqnum,
		Timestamp1: first.Timestamp,
		Seqnum2:    lastSeqnum,
		Timestamp2: lastTimestamp,
	}, dataEnd, nil
}
