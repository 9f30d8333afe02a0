package journal

// Stats summarizes the seqnum range [seqnum1, seqnum2] clamped to the
// journal's live range. If the journal is empty or the requested range
// and the live range are disjoint, Stats returns a value with only
// FsyncEnabled set, and no error.
func (j *Journal) Stats(seqnum1, seqnum2 uint64) (Stats, error) {
	if err := j.checkOpen(); err != nil {
		return Stats{}, err
	}

	j.fileMu.RLock()
	defer j.fileMu.RUnlock()

	state := j.snapshotState()

	if state.Empty() {
		return Stats{FsyncEnabled: j.fsync}, nil
	}

	lo := seqnum1
	if lo < state.Seqnum1 {
		lo = state.Seqnum1
	}

	hi := seqnum2
	if hi > state.Seqnum2 {
		hi = state.Seqnum2
	}

	if lo > hi {
		return Stats{FsyncEnabled: j.fsync}, nil
	}

	loRec, err := j.idx.readSlot(indexSlotPos(state.Seqnum1, lo))
	if err != nil {
		return Stats{}, err
	}

	hiRec, err := j.idx.readSlot(indexSlotPos(state.Seqnum1, hi))
	if err != nil {
		return Stats{}, err
	}

	datSize, err := j.dat.size()
	if err != nil {
		return Stats{}, err
	}

	hiHdr, _, err := j.dat.readRecordNoChecksum(int64(hiRec.Pos), datSize)
	if err != nil {
		return Stats{}, err
	}

	dataSize := int64(hiRec.Pos-loRec.Pos) + recordSpan(hiHdr.DataLen)
	indexSize := int64(hi-lo+1) * indexRecordSize

	return Stats{
		MinSeqnum:    lo,
		MaxSeqnum:    hi,
		MinTimestamp: loRec.Timestamp,
		MaxTimestamp: hiRec.Timestamp,
		NumEntries:   hi - lo + 1,
		IndexSize:    indexSize,
		DataSize:     dataSize,
		FsyncEnabled: j.fsync,
	}, nil
}
