// Package universe holds the tradable instrument pool. Rule 1 of the
// compliance pipeline only accepts symbols that are present, enabled
// and of type stock/etf.
package universe

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"stockdesk/internal/types"

	"gopkg.in/yaml.v3"
)

type instrumentEntry struct {
	Symbol  string `yaml:"symbol"`
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Enabled *bool  `yaml:"enabled"`
}

type universeFile struct {
	Instruments []instrumentEntry `yaml:"instruments"`
}

// Universe is a concurrency-safe view over the instrument file.
type Universe struct {
	mu   sync.RWMutex
	path string
	byID map[string]types.Instrument
}

// Load parses the instrument file at path.
func Load(path string) (*Universe, error) {
	u := &Universe{path: path}
	if err := u.Reload(); err != nil {
		return nil, err
	}
	return u, nil
}

// Reload re-reads the backing file, replacing the in-memory pool only
// when parsing succeeds.
func (u *Universe) Reload() error {
	raw, err := os.ReadFile(u.path)
	if err != nil {
		return fmt.Errorf("universe: reading %s: %w", u.path, err)
	}
	var file universeFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("universe: parsing %s: %w", u.path, err)
	}
	byID := make(map[string]types.Instrument, len(file.Instruments))
	for i, entry := range file.Instruments {
		symbol := strings.ToUpper(strings.TrimSpace(entry.Symbol))
		if symbol == "" {
			return fmt.Errorf("universe: instrument #%d is missing a symbol", i+1)
		}
		kind := strings.ToLower(strings.TrimSpace(entry.Type))
		if kind == "" {
			kind = "stock"
		}
		enabled := true
		if entry.Enabled != nil {
			enabled = *entry.Enabled
		}
		byID[symbol] = types.Instrument{
			Symbol:  symbol,
			Name:    strings.TrimSpace(entry.Name),
			Type:    kind,
			Enabled: enabled,
		}
	}
	u.mu.Lock()
	u.byID = byID
	u.mu.Unlock()
	return nil
}

// Lookup returns the instrument for symbol, if listed.
func (u *Universe) Lookup(symbol string) (types.Instrument, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	inst, ok := u.byID[strings.ToUpper(strings.TrimSpace(symbol))]
	return inst, ok
}

// Symbols lists every listed symbol, enabled or not.
func (u *Universe) Symbols() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]string, 0, len(u.byID))
	for sym := range u.byID {
		out = append(out, sym)
	}
	return out
}

// EnabledSymbols lists symbols currently open for trading.
func (u *Universe) EnabledSymbols() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]string, 0, len(u.byID))
	for sym, inst := range u.byID {
		if inst.Enabled {
			out = append(out, sym)
		}
	}
	return out
}

func (u *Universe) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.byID)
}
