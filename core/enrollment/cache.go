package enrollment

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// IDSet is a set of formation IDs.
type IDSet map[int]struct{}

func NewIDSet(ids ...int) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s IDSet) Add(id int) {
	if id > 0 {
		s[id] = struct{}{}
	}
}

func (s IDSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Remove(id int) { delete(s, id) }

// Sorted returns the IDs in ascending order.
func (s IDSet) Sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// DurableCache persists the formation IDs the current browser profile marked as requested.
//
// Get never fails: missing or corrupt data reads as an empty set.
// Set overwrites any prior value.
type DurableCache interface {
	Get() IDSet
	Set(ids IDSet) error
}

// MarshalIDs encodes ids as a sorted JSON array.
func MarshalIDs(ids IDSet) ([]byte, error) {
	return json.Marshal(ids.Sorted())
}

// UnmarshalIDs decodes a JSON array of formation IDs. Numeric strings are
// accepted since browser storage tends to stringify; other items are an error.
func UnmarshalIDs(data []byte) (IDSet, error) {
	ids := NewIDSet()
	if len(strings.TrimSpace(string(data))) == 0 {
		return ids, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decoding formation ids")
	}
	for _, item := range raw {
		var id int
		if err := json.Unmarshal(item, &id); err == nil {
			ids.Add(id)
			continue
		}
		var str string
		if err := json.Unmarshal(item, &str); err != nil {
			return nil, errors.Errorf("invalid formation id %s", string(item))
		}
		id, err := strconv.Atoi(strings.TrimSpace(str))
		if err != nil {
			return nil, errors.Errorf("invalid formation id %q", str)
		}
		ids.Add(id)
	}
	return ids, nil
}
