package monitor

import "otpwatch/internal/message"

// rotationCap bounds the notification burst when the cursor has rotated out
// of the visible window (e.g. the site keeps a limited history).
const rotationCap = 10

// Delta computes the records in snapshot that are new relative to lastID.
//
// The snapshot is newest-first by contract with the source. The returned
// slice is reordered oldest-first so delivery happens chronologically.
// updatedID is the id of the newest record considered new; it equals lastID
// when there is nothing new.
//
// A lastID of "" means no cursor exists yet (first run ever): nothing is
// returned for delivery, but updatedID reports the newest visible id so the
// caller can persist it without notifying the whole backlog.
func Delta(snapshot []message.Record, lastID string) (fresh []message.Record, updatedID string) {
	if len(snapshot) == 0 {
		return nil, lastID
	}

	if lastID == "" {
		// Initial sync: adopt the newest id, deliver nothing.
		return nil, snapshot[0].ID
	}

	idx := -1
	for i, r := range snapshot {
		if r.ID == lastID {
			idx = i
			break
		}
	}

	if idx == 0 {
		// Nothing newer than the cursor.
		return nil, lastID
	}

	var newest []message.Record
	if idx < 0 {
		// Cursor not visible anymore; cap the burst to the newest entries.
		n := len(snapshot)
		if n > rotationCap {
			n = rotationCap
		}
		newest = snapshot[:n:n]
	} else {
		newest = snapshot[:idx:idx]
	}

	// Reverse to oldest-first for chronological delivery.
	fresh = make([]message.Record, len(newest))
	for i, r := range newest {
		fresh[len(newest)-1-i] = r
	}
	return fresh, newest[0].ID
}
