package journal

import "fmt"

// Rollback removes all entries with seqnum > seqnum and returns the
// number of entries removed.
//
// If the journal is empty or seqnum >= state.Seqnum2, Rollback is a
// no-op. If seqnum < state.Seqnum1, every entry is removed and the
// journal becomes empty.
func (j *Journal) Rollback(seqnum uint64) (removed uint64, err error) {
	if err := j.checkOpen(); err != nil {
		return 0, err
	}

	j.fileMu.Lock()
	defer j.fileMu.Unlock()

	j.stateMu.Lock()
	defer j.stateMu.Unlock()

	state := j.state

	if state.Empty() || seqnum >= state.Seqnum2 {
		return 0, nil
	}

	if seqnum < state.Seqnum1 {
		removed = state.Seqnum2 - state.Seqnum1 + 1

		idxSize, err := j.idx.size()
		if err != nil {
			return 0, err
		}

		if err := zeroFill(j.idx.f, headerSize, idxSize); err != nil {
			return 0, err
		}

		if err := j.flushIndex(); err != nil {
			return 0, err
		}

		if err := zeroFill(j.dat.f, headerSize, j.datEnd); err != nil {
			return 0, err
		}

		if err := j.flushData(); err != nil {
			return 0, err
		}

		j.state = State{}
		j.datEnd = headerSize

		return removed, nil
	}

	removed = state.Seqnum2 - seqnum

	keepRec, err := j.idx.readSlot(indexSlotPos(state.Seqnum1, seqnum))
	if err != nil {
		return 0, err
	}

	nextRec, err := j.idx.readSlot(indexSlotPos(state.Seqnum1, seqnum+1))
	if err != nil {
		return 0, err
	}

	newDatEnd := int64(nextRec.Pos)

	idxTailStart := indexSlotPos(state.Seqnum1, seqnum+1)
	idxTailEnd := indexSlotPos(state.Seqnum1, state.Seqnum2) + indexRecordSize

	if err := zeroFill(j.idx.f, idxTailStart, idxTailEnd); err != nil {
		return 0, err
	}

	if err := j.flushIndex(); err != nil {
		return 0, err
	}

	size, err := j.dat.size()
	if err != nil {
		return 0, err
	}

	if err := zeroFill(j.dat.f, newDatEnd, size); err != nil {
		return 0, err
	}

	if err := j.flushData(); err != nil {
		return 0, err
	}

	j.state = State{
		Seqnum1:    state.Seqnum1,
		Timestamp1: state.Timestamp1,
		Seqnum2:    seqnum,
		Timestamp2: keepRec.Timestamp,
	}
	j.datEnd = newDatEnd

	return removed, nil
}

func (j *Journal) flushIndex() error {
	if err := j.idx.f.Sync(); err != nil {
		return fmt.Errorf("%w: %w", ErrIndexWrite, err)
	}

	return nil
}

func (j *Journal) flushData() error {
	if !j.fsync {
		return nil
	}

	if err := j.dat.f.Sync(); err != nil {
		return fmt.Errorf("%w: %w", ErrDataWrite, err)
	}

	return nil
}
