package journal

import (
	"fmt"
	"time"
)

func nowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}

// Append writes entries to the journal in order and reports how many were
// written before the first failure.
//
// For each entry, Seqnum == 0 assigns the next seqnum and Timestamp == 0
// assigns max(now, state.Timestamp2). Append is not atomic across
// entries: if entry k fails, entries [0,k) are already written (and
// synced to disk when Fsync is enabled) and numWritten == k.
func (j *Journal) Append(entries ...Entry) (numWritten int, err error) {
	if err := j.checkOpen(); err != nil {
		return 0, err
	}

	if len(entries) == 0 {
		return 0, nil
	}

	j.stateMu.RLock()
	state := j.state
	datEnd := j.datEnd
	j.stateMu.RUnlock()

	written := 0
	loopErr := error(nil)

loop:
	for _, e := range entries {
		seqnum := e.Seqnum

		switch {
		case seqnum == 0:
			seqnum = state.Seqnum2 + 1
		case !state.Empty() && seqnum != state.Seqnum2+1:
			loopErr = ErrBrokenSeqnum

			break loop
		}

		timestamp := e.Timestamp

		switch {
		case timestamp == 0:
			timestamp = nowMillis()
			if timestamp < state.Timestamp2 {
				timestamp = state.Timestamp2
			}
		case timestamp < state.Timestamp2:
			loopErr = ErrInvalidTimestamp

			break loop
		}

		pos, werr := j.dat.appendRecord(datEnd, seqnum, timestamp, e.Data)
		if werr != nil {
			loopErr = werr

			break loop
		}

		seqnum1 := state.Seqnum1
		if state.Empty() {
			seqnum1 = seqnum
		}

		if werr := j.idx.appendEntry(seqnum1, seqnum, timestamp, datEnd); werr != nil {
			loopErr = werr

			break loop
		}

		datEnd = pos

		if state.Empty() {
			state.Seqnum1 = seqnum
			state.Timestamp1 = timestamp
		}

		state.Seqnum2 = seqnum
		state.Timestamp2 = timestamp

		written++
	}

	if j.fsync && written > 0 {
		if err := j.dat.f.Sync(); err != nil {
			loopErr = fmt.Errorf("%w: %w", ErrDataWrite, err)
		}
	}

	j.stateMu.Lock()
	j.state = state
	j.datEnd = datEnd
	j.stateMu.Unlock()

	return written, loopErr
}
