package sentinel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nutcracker-tools/beholder/internal/models"
)

var ErrMalformedEvent = errors.New("malformed switch-master event")

// ParseSwitchMaster parses a sentinel +switch-master payload:
//
//	<master-name> <old-ip> <old-port> <new-ip> <new-port>
//
// Some relays prefix the payload with the event name; a leading
// "switch-master" token is tolerated and dropped. Anything else fails with
// ErrMalformedEvent.
func ParseSwitchMaster(payload string) (models.SwitchMaster, error) {
	tokens := strings.Fields(payload)
	if len(tokens) == 6 && (tokens[0] == "switch-master" || tokens[0] == SwitchMasterChannel) {
		tokens = tokens[1:]
	}
	if len(tokens) != 5 {
		return models.SwitchMaster{}, fmt.Errorf("%w: expected 5 tokens, got %d in %q", ErrMalformedEvent, len(tokens), payload)
	}

	from, err := models.NewAddr(tokens[1], tokens[2])
	if err != nil {
		return models.SwitchMaster{}, fmt.Errorf("%w: bad old address in %q: %s", ErrMalformedEvent, payload, err)
	}
	to, err := models.NewAddr(tokens[3], tokens[4])
	if err != nil {
		return models.SwitchMaster{}, fmt.Errorf("%w: bad new address in %q: %s", ErrMalformedEvent, payload, err)
	}

	return models.SwitchMaster{
		Pool: tokens[0],
		Old:  from,
		New:  to,
	}, nil
}
