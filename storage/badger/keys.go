package badger

import (
	"encoding/binary"
)

// Key prefixes for different data types
const (
	turnPrefix  = "convturn"
	turnSeqName = "convturnseq"
)

// keySeparator terminates the user ID inside composite keys, so one user's
// prefix can never alias another's.
const keySeparator = 0x00

// makeTurnKey generates a composite key for one conversation turn.
// Format: prefix 0x00 userID 0x00 seq (BigEndian, so lexicographic order
// matches insertion order).
func makeTurnKey(userID string, seq uint64) []byte {
	prefix := makeTurnPrefix(userID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeTurnPrefix generates the iteration prefix for a user's turns.
func makeTurnPrefix(userID string) []byte {
	buf := make([]byte, 0, len(turnPrefix)+len(userID)+2)
	buf = append(buf, turnPrefix...)
	buf = append(buf, keySeparator)
	buf = append(buf, userID...)
	buf = append(buf, keySeparator)
	return buf
}

// makeTurnSeqName generates the per-user sequence name.
func makeTurnSeqName(userID string) string {
	return turnSeqName + ":" + userID
}
