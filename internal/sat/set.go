package sat

// ResetSet represents a set of variables from 0 to N-1 where N is the
// capacity of the set. Clearing the set is done in constant time which makes
// it suited for the seen-variables bookkeeping of conflict analysis.
type ResetSet struct {
	addedAt        []uint16
	addedTimestamp uint16
}

// Contains returns true if v is in the set.
func (rs *ResetSet) Contains(v int) bool {
	return rs.addedAt[v] == rs.addedTimestamp
}

// Add adds v to the set.
func (rs *ResetSet) Add(v int) {
	rs.addedAt[v] = rs.addedTimestamp
}

// Clear removes all the elements in the set in constant time.
func (rs *ResetSet) Clear() {
	rs.addedTimestamp++
	if rs.addedTimestamp == 0 { // overflow
		rs.addedTimestamp = 1
		clear(rs.addedAt)
	}
}

// Expand increases the capacity of the set by one. The new element is never
// part of the set, whatever the current timestamp.
func (rs *ResetSet) Expand() {
	rs.addedAt = append(rs.addedAt, rs.addedTimestamp-1)
}

// Len returns the capacity of the set.
func (rs *ResetSet) Len() int {
	return len(rs.addedAt)
}
