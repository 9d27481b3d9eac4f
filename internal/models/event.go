package models

import "fmt"

// SwitchMaster is one leadership change announced by sentinel: the master of
// Pool moved from Old to New.
type SwitchMaster struct {
	Pool string
	Old  Addr
	New  Addr
}

func (e SwitchMaster) String() string {
	return fmt.Sprintf("{pool=%s, %s -> %s}", e.Pool, e.Old, e.New)
}
