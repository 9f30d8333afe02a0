package journal

import "fmt"

// Read fills entries with up to len(entries) records starting at seqnum,
// parsing them in place out of buf (which must be at least
// dataRecordHeaderSize bytes). It returns the number of entries actually
// populated.
//
// Read performs a single positional read of up to len(buf) bytes
// starting at seqnum's offset, then parses records out of it without
// copying payload bytes: each Entry's Data aliases buf. If a record would
// extend past the data read into buf, parsing stops; the partially-read
// record's header fields (Seqnum, Timestamp) are populated but Data is
// nil, and the previously fully-parsed entry is likewise left with Data
// nil, so the caller can size a larger buffer and retry from the earlier
// seqnum. Unused trailing entries (beyond the returned count) have
// Seqnum == 0.
func (j *Journal) Read(seqnum uint64, entries []Entry, buf []byte) (num int, err error) {
	if err := j.checkOpen(); err != nil {
		return 0, err
	}

	if len(buf) < dataRecordHeaderSize {
		return 0, ErrInvalidArgument
	}

	for i := range entries {
		entries[i] = Entry{}
	}

	j.fileMu.RLock()
	defer j.fileMu.RUnlock()

	state := j.snapshotState()

	if seqnum == 0 || state.Empty() || seqnum < state.Seqnum1 || seqnum > state.Seqnum2 {
		return 0, ErrNotFound
	}

	startPos, err := j.indexPos(state, seqnum)
	if err != nil {
		return 0, err
	}

	size, err := j.dat.size()
	if err != nil {
		return 0, err
	}

	readLen := int64(len(buf))
	if startPos+readLen > size {
		readLen = size - startPos
	}

	n, rerr := j.dat.f.ReadAt(buf[:readLen], startPos)
	if rerr != nil && n == 0 {
		return 0, fmt.Errorf("%w: %w", ErrDataRead, rerr)
	}

	avail := int64(n)

	var pos int64

	count := 0

	maxEntries := len(entries)
	if maxEntries == 0 {
		return 0, nil
	}

	if live := state.Seqnum2 - seqnum + 1; uint64(maxEntries) > live {
		maxEntries = int(live)
	}

	for count < maxEntries {
		if pos+dataRecordHeaderSize > avail {
			break
		}

		hdr := decodeDataRecordHeader(buf[pos : pos+dataRecordHeaderSize])
		if hdr.isZero() {
			break
		}

		span := recordSpan(hdr.DataLen)
		if pos+span > avail {
			// Partial next entry: surface header info but no data. The
			// previously fully-parsed entry is invalidated too, since its
			// data aliases the same buf the caller is about to resize or
			// overwrite with a wider read starting at this same seqnum.
			if count > 0 {
				entries[count-1].Data = nil
			}

			entries[count] = Entry{Seqnum: hdr.Seqnum, Timestamp: hdr.Timestamp}

			break
		}

		payloadStart := pos + dataRecordHeaderSize
		entries[count] = Entry{
			Seqnum:    hdr.Seqnum,
			Timestamp: hdr.Timestamp,
			Data:      buf[payloadStart : payloadStart+int64(hdr.DataLen)],
		}

		pos += span
		count++
	}

	return count, nil
}

// indexPos returns the data file offset of seqnum via a single index
// lookup.
func (j *Journal) indexPos(state State, seqnum uint64) (int64, error) {
	rec, err := j.idx.readSlot(indexSlotPos(state.Seqnum1, seqnum))
	if err != nil {
		return 0, err
	}

	return int64(rec.Pos), nil
}
