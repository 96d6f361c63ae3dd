// Package registry resolves loading position codes to moment arms and keeps
// the pallet style catalogue.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/iwvelando/weight-balance/internal/balance"
)

var (
	// ErrInvalidPosition is returned when registering a position without a
	// code or with a non-positive arm.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrInvalidPalletStyle is returned when registering an unnamed style.
	ErrInvalidPalletStyle = errors.New("invalid pallet style")
)

// Position is a loading position and its moment arm in inches.
type Position struct {
	Code       balance.PositionCode `json:"code"`
	Name       string               `json:"name,omitempty"`
	Arm        float64              `json:"arm"`
	PalletType string               `json:"palletType,omitempty"`
	Custom     bool                 `json:"custom,omitempty"`
}

// PalletStyle describes a unit load device type.
type PalletStyle struct {
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	MaxWeight        float64 `json:"maxWeight"`
	Dimensions       string  `json:"dimensions,omitempty"`
	MomentMultiplier float64 `json:"momentMultiplier"`
	Category         string  `json:"category,omitempty"`
}

// Registry is a concurrency-safe position and pallet style catalogue. It
// implements balance.ArmResolver.
type Registry struct {
	mu        sync.RWMutex
	positions map[balance.PositionCode]Position
	styles    map[string]PalletStyle
}

// New creates a registry seeded with the static positions. Invalid static
// entries are returned as an error.
func New(static []Position) (*Registry, error) {
	r := &Registry{
		positions: make(map[balance.PositionCode]Position, len(static)),
		styles:    make(map[string]PalletStyle),
	}
	for _, p := range static {
		if err := validatePosition(p); err != nil {
			return nil, err
		}
		p.Custom = false
		r.positions[p.Code] = p
	}
	return r, nil
}

func validatePosition(p Position) error {
	if p.Code == "" {
		return fmt.Errorf("%w: empty code", ErrInvalidPosition)
	}
	if p.Arm <= 0 {
		return fmt.Errorf("%w: %s: arm must be positive, got %v", ErrInvalidPosition, p.Code, p.Arm)
	}
	return nil
}

// Register adds or replaces a runtime position. It reports whether an
// existing code was overridden.
func (r *Registry) Register(p Position) (bool, error) {
	if err := validatePosition(p); err != nil {
		return false, err
	}
	p.Custom = true

	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.positions[p.Code]
	r.positions[p.Code] = p
	return exists, nil
}

// MomentArm implements balance.ArmResolver.
func (r *Registry) MomentArm(code balance.PositionCode) (float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.positions[code]
	return p.Arm, ok
}

// Lookup returns the full position record for code.
func (r *Registry) Lookup(code balance.PositionCode) (Position, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.positions[code]
	return p, ok
}

// Positions returns every position ordered by arm, then code.
func (r *Registry) Positions() []Position {
	r.mu.RLock()
	out := make([]Position, 0, len(r.positions))
	for _, p := range r.positions {
		out = append(out, p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Arm != out[j].Arm {
			return out[i].Arm < out[j].Arm
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// RegisterStyle adds or replaces a pallet style.
func (r *Registry) RegisterStyle(s PalletStyle) error {
	if s.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidPalletStyle)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.styles[s.Name] = s
	return nil
}

// Style returns the pallet style with the given name.
func (r *Registry) Style(name string) (PalletStyle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.styles[name]
	return s, ok
}

// Styles returns every pallet style ordered by name.
func (r *Registry) Styles() []PalletStyle {
	r.mu.RLock()
	out := make([]PalletStyle, 0, len(r.styles))
	for _, s := range r.styles {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
