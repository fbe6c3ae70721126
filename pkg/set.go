package pkg

import (
	"sort"

	sets "github.com/deckarep/golang-set"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PidSet is a set of process ids. It is not safe for concurrent use; each
// owner keeps its own.
type PidSet struct {
	internal sets.Set
}

func NewPidSet(pids ...int32) *PidSet {
	set := &PidSet{internal: sets.NewThreadUnsafeSet()}
	for _, pid := range pids {
		set.internal.Add(pid)
	}
	return set
}

func (set *PidSet) init() {
	if set.internal == nil {
		set.internal = sets.NewThreadUnsafeSet()
	}
}

func (set *PidSet) Add(pid int32) bool {
	set.init()
	return set.internal.Add(pid)
}

func (set *PidSet) Contains(pid int32) bool {
	set.init()
	return set.internal.Contains(pid)
}

func (set *PidSet) Len() int {
	set.init()
	return set.internal.Cardinality()
}

func (set *PidSet) Equal(other *PidSet) bool {
	set.init()
	other.init()
	return set.internal.Equal(other.internal)
}

// Difference returns the ids in set that are not in other.
func (set *PidSet) Difference(other *PidSet) *PidSet {
	set.init()
	other.init()
	return &PidSet{internal: set.internal.Difference(other.internal)}
}

// Sorted returns the ids in ascending order.
func (set *PidSet) Sorted() []int32 {
	set.init()
	res := make([]int32, 0, set.internal.Cardinality())
	set.internal.Each(func(elem interface{}) bool {
		res = append(res, elem.(int32))
		return false
	})
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

func (set *PidSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(set.Sorted())
}

func (set *PidSet) UnmarshalJSON(data []byte) error {
	var array []int32
	if err := json.Unmarshal(data, &array); err != nil {
		return err
	}
	set.init()
	for _, pid := range array {
		set.internal.Add(pid)
	}
	return nil
}
