package proxyconf

import (
	"errors"
	"fmt"

	"github.com/nutcracker-tools/beholder/internal/models"
)

var ErrUnknownPool = errors.New("no pool configured for master")

// ResolveSwitch rewires the pool named by the event to the new master
// address. It reports whether anything changed; applying the same event
// twice leaves the pool contents identical.
//
// When no entry matches the old address the new address is still inserted:
// the pool converges to the announced truth instead of insisting on a
// strict match against a config that may already have drifted.
func ResolveSwitch(pools Pools, ev models.SwitchMaster) (bool, error) {
	pool, ok := pools[ev.Pool]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownPool, ev.Pool)
	}

	for _, srv := range pool.Servers {
		if srv.Addr == ev.New {
			return false, nil
		}
	}
	for i := range pool.Servers {
		if pool.Servers[i].Addr == ev.Old {
			pool.Servers[i].Addr = ev.New
			return true, nil
		}
	}
	pool.Servers = append(pool.Servers, ServerEntry{
		Addr:   ev.New,
		Weight: 1,
		Name:   ev.Pool,
	})
	return true, nil
}
