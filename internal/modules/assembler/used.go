package assembler

import (
	"sync"

	"wayfarer/internal/types"
)

// UsedSet records which day claimed each candidate. It is shared by every day
// of one trip and is safe for concurrent use.
type UsedSet struct {
	mu   sync.Mutex
	days map[types.ID]int
}

func NewUsedSet() *UsedSet {
	return &UsedSet{days: make(map[types.ID]int)}
}

// TryClaim atomically claims id for day. It returns false if any day,
// including this one, already holds it.
func (u *UsedSet) TryClaim(id types.ID, day int) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, taken := u.days[id]; taken {
		return false
	}
	u.days[id] = day
	return true
}

func (u *UsedSet) Release(id types.ID) {
	u.mu.Lock()
	delete(u.days, id)
	u.mu.Unlock()
}

func (u *UsedSet) Has(id types.ID) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.days[id]
	return ok
}

// DayOf returns the day holding id.
func (u *UsedSet) DayOf(id types.ID) (int, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	d, ok := u.days[id]
	return d, ok
}

func (u *UsedSet) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.days)
}
