package proxyconf

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nutcracker-tools/beholder/internal/models"
)

// Pools is a twemproxy configuration document: pool name -> pool.
type Pools map[string]*Pool

// Pool keeps the server list typed and carries every other pool key
// (listen, hash, redis, ...) through a rewrite untouched.
type Pool struct {
	Servers []ServerEntry  `yaml:"servers"`
	Rest    map[string]any `yaml:",inline"`
}

// ServerEntry is one twemproxy server line: "host:port:weight [name]".
type ServerEntry struct {
	Addr   models.Addr
	Weight int
	Name   string
}

func ParseServerEntry(s string) (ServerEntry, error) {
	tokens := strings.Fields(s)
	if len(tokens) == 0 || len(tokens) > 2 {
		return ServerEntry{}, fmt.Errorf("invalid server entry %q", s)
	}
	parts := strings.Split(tokens[0], ":")
	if len(parts) != 3 {
		return ServerEntry{}, fmt.Errorf("invalid server entry %q: want host:port:weight", s)
	}
	addr, err := models.NewAddr(parts[0], parts[1])
	if err != nil {
		return ServerEntry{}, fmt.Errorf("invalid server entry %q: %w", s, err)
	}
	weight, err := strconv.Atoi(parts[2])
	if err != nil || weight < 0 {
		return ServerEntry{}, fmt.Errorf("invalid server entry %q: bad weight %q", s, parts[2])
	}
	entry := ServerEntry{Addr: addr, Weight: weight}
	if len(tokens) == 2 {
		entry.Name = tokens[1]
	}
	return entry, nil
}

func (e ServerEntry) String() string {
	s := fmt.Sprintf("%s:%d:%d", e.Addr.Host, e.Addr.Port, e.Weight)
	if e.Name != "" {
		s += " " + e.Name
	}
	return s
}

func (e ServerEntry) MarshalYAML() (any, error) {
	return e.String(), nil
}

func (e *ServerEntry) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseServerEntry(raw)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
