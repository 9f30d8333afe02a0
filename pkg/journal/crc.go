package journal

import "hash/crc32"

// ieeeTable is the standard CRC-32 (IEEE 802.3) table: polynomial 0xEDB88320
// (reflected), initial value 0xFFFFFFFF, final XOR 0xFFFFFFFF.
var ieeeTable = crc32.MakeTable(crc32.IEEE)

// crcUpdate extends a running CRC-32/IEEE computation with data, given the
// checksum accumulated so far (0 for a fresh computation).
//
// crcUpdate is composable: crcUpdate(crcUpdate(0, a), b) equals the checksum
// of the concatenation a‖b computed in one call, and crcUpdate(init, nil)
// equals init. This lets record checksums be built incrementally from
// disjoint fields without materializing a single contiguous buffer.
func crcUpdate(crc uint32, data []byte) uint32 {
	return crc32.Update(crc, ieeeTable, data)
}

// recordChecksum computes the checksum covering a record's seqnum,
// timestamp, data_len, and payload, in that order. Pad bytes are never
// covered.
func recordChecksum(seqnum, timestamp uint64, dataLen uint32, payload []byte) uint32 {
	var head [20]byte
	putUint64(head[0:8], seqnum)
	putUint64(head[8:16], timestamp)
	putUint32(head[16:20], dataLen)

	crc := crcUpdate(0, head[:])
	crc = crcUpdate(crc, payload)

	return crc
}
