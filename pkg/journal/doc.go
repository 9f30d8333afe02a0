// Package journal provides an embedded, append-only journal engine for
// event-driven applications.
//
// A journal stores variable-length records identified by a monotonically
// increasing sequence number (seqnum) and indexed by a monotonic
// non-decreasing timestamp. It supports appending, point/range reads,
// timestamp search, rollback of the tail, and purge of the head, with
// read-write concurrency and crash recovery.
//
// # Basic usage
//
//	j, err := journal.Open(journal.OpenOptions{
//	    Path: "/var/lib/myapp",
//	    Name: "events",
//	})
//	if err != nil {
//	    // handle ErrInvalidDataFormat / ErrInvalidIndexFormat etc.
//	}
//	defer j.Close()
//
//	n, err := j.Append(journal.Entry{Data: []byte("hello")})
//
//	entries := make([]journal.Entry, 16)
//	buf := make([]byte, 64*1024)
//	num, err := j.Read(seqnum, entries, buf)
//
// # Concurrency
//
// A journal handle supports a single writer and any number of concurrent
// readers within one process. Readers never block the writer and vice
// versa for Append; destructive operations ([Journal.Rollback],
// [Journal.Purge]) exclude readers for their duration. A second process
// opening the same journal fails to acquire the advisory lock and [Open]
// returns [ErrLocked].
//
// # Error handling
//
// Errors are a closed set of sentinel values (see errors.go), classifiable
// with [errors.Is]. Some low-level I/O failures (a failed stat or
// zero-fill of a file) are returned wrapped with context only and match
// no sentinel. Format errors discovered while opening
// the index trigger at most one automatic rebuild attempt before being
// surfaced to the caller.
package journal
