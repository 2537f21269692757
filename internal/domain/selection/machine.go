// Package selection implements the residue selection and region state
// machine: the click protocol, the derived nearby set, and saved regions.
//
// A Machine is not safe for concurrent use; callers serialize access.
package selection

import (
	"sort"

	"github.com/irisuniflora/VF/internal/domain/render"
	"github.com/irisuniflora/VF/internal/domain/structure"
	"github.com/irisuniflora/VF/pkg/errors"
)

// Residues is the registry surface the machine needs.
type Residues interface {
	Has(k structure.ResidueKey) bool
	RangeInChain(chain string, lo, hi int) []structure.ResidueKey
}

// NearbyFinder computes the residues around a selection.
type NearbyFinder interface {
	Neighbors(selection structure.KeySet, cutoff float64) structure.KeySet
}

// Modifiers are the keyboard modifiers held during a click.  Ctrl covers
// Cmd on macOS.
type Modifiers struct {
	Ctrl  bool `json:"ctrl"`
	Shift bool `json:"shift"`
}

// Options configures a Machine.
type Options struct {
	Cutoff        float64
	ShowNearby    bool
	DefaultStyle  render.StyleKind
	DefaultScheme render.Scheme
}

// Machine owns the live selection context of one structure.
type Machine struct {
	residues Residues
	finder   NearbyFinder
	opts     Options

	selection structure.KeySet
	nearby    structure.KeySet
	anchor    *structure.ResidueKey

	showNearby   bool
	globalStyle  render.StyleKind
	globalScheme render.Scheme

	regions []*Region
	nextID  int
	active  *Region

	revision uint64
}

// NewMachine returns a machine in the global context with empty sets.
func NewMachine(residues Residues, finder NearbyFinder, opts Options) *Machine {
	if opts.Cutoff <= 0 {
		opts.Cutoff = 4.0
	}
	if opts.DefaultStyle == "" {
		opts.DefaultStyle = render.StyleStick
	}
	if opts.DefaultScheme == "" {
		opts.DefaultScheme = render.SchemeChain
	}
	return &Machine{
		residues:     residues,
		finder:       finder,
		opts:         opts,
		selection:    structure.NewKeySet(),
		nearby:       structure.NewKeySet(),
		showNearby:   opts.ShowNearby,
		globalStyle:  opts.DefaultStyle,
		globalScheme: opts.DefaultScheme,
		nextID:       1,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Click protocol
// ─────────────────────────────────────────────────────────────────────────────

// Click applies the click protocol for residue k.
//
//   - plain: the selection becomes {k}
//   - ctrl: k's membership toggles
//   - shift: the residues between the anchor and k in k's chain are added;
//     with no usable anchor (none, another chain, or gone from the
//     structure) only k is added
//
// The anchor moves to k whenever k ends up added.
func (m *Machine) Click(k structure.ResidueKey, mods Modifiers) {
	switch {
	case mods.Shift:
		if a := m.anchor; a != nil && a.Chain == k.Chain && m.residues.Has(*a) {
			for _, r := range m.residues.RangeInChain(k.Chain, a.Seq, k.Seq) {
				m.selection.Add(r)
			}
		} else {
			m.selection.Add(k)
		}
		m.setAnchor(k)
	case mods.Ctrl:
		if m.selection.Has(k) {
			m.selection.Remove(k)
		} else {
			m.selection.Add(k)
			m.setAnchor(k)
		}
	default:
		m.selection = structure.NewKeySet(k)
		m.setAnchor(k)
	}
	m.refresh()
}

// ClickEmptySpace clears the live context, and with it the active region.
func (m *Machine) ClickEmptySpace() {
	m.selection = structure.NewKeySet()
	m.anchor = nil
	m.refresh()
}

// Select replaces the selection with keys.  The anchor is cleared.
func (m *Machine) Select(keys structure.KeySet) {
	m.selection = keys.Clone()
	m.anchor = nil
	m.refresh()
}

func (m *Machine) setAnchor(k structure.ResidueKey) {
	m.anchor = &k
}

// refresh recomputes the nearby set and mirrors the live sets into the active
// region.
func (m *Machine) refresh() {
	m.nearby = structure.NewKeySet()
	if m.showNearby && m.selection.Len() > 0 && m.finder != nil {
		for k := range m.finder.Neighbors(m.selection, m.opts.Cutoff) {
			if !m.selection.Has(k) {
				m.nearby.Add(k)
			}
		}
	}
	if m.active != nil {
		m.active.Selection = m.selection.Clone()
		m.active.Nearby = m.nearby.Clone()
	}
	m.revision++
}

// ─────────────────────────────────────────────────────────────────────────────
// Regions
// ─────────────────────────────────────────────────────────────────────────────

// CreateRegion snapshots the live sets into a new region with the default
// style and scheme and makes it active.
func (m *Machine) CreateRegion() RegionView {
	r := &Region{
		ID:        m.nextID,
		Selection: m.selection.Clone(),
		Nearby:    m.nearby.Clone(),
		Style:     m.opts.DefaultStyle,
		Scheme:    m.opts.DefaultScheme,
	}
	m.nextID++
	m.regions = append(m.regions, r)
	m.active = r
	m.revision++
	return r.view(true)
}

// ActivateRegion switches the live context.  A nil id selects the global
// context, which keeps no stored sets and therefore starts empty.  Switching
// to the context that is already live changes nothing.
func (m *Machine) ActivateRegion(id *int) error {
	var next *Region
	if id != nil {
		next = m.region(*id)
		if next == nil {
			return errors.New(errors.ErrCodeRegionNotFound, "region not found").WithDetail(itoa(*id))
		}
	}
	if next == m.active {
		return nil
	}
	if m.active != nil {
		m.active.Selection = m.selection.Clone()
		m.active.Nearby = m.nearby.Clone()
	}
	m.active = next
	m.anchor = nil
	if next != nil {
		m.selection = next.Selection.Clone()
	} else {
		m.selection = structure.NewKeySet()
	}
	m.refresh()
	return nil
}

// DeleteRegion removes a region.  Deleting the active region falls back to
// the global context with empty live sets.
func (m *Machine) DeleteRegion(id int) error {
	idx := -1
	for i, r := range m.regions {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.New(errors.ErrCodeRegionNotFound, "region not found").WithDetail(itoa(id))
	}
	wasActive := m.active == m.regions[idx]
	m.regions = append(m.regions[:idx], m.regions[idx+1:]...)
	if wasActive {
		m.active = nil
		m.selection = structure.NewKeySet()
		m.anchor = nil
		m.refresh()
		return nil
	}
	m.revision++
	return nil
}

// ClearRegions drops every region and returns to the global context.
func (m *Machine) ClearRegions() {
	m.regions = nil
	m.active = nil
	m.revision++
}

func (m *Machine) region(id int) *Region {
	for _, r := range m.regions {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// ResetLive empties the live sets and anchor without touching stored region
// snapshots.  The machine returns to the global context so no region is
// mirrored from the cleared sets.
func (m *Machine) ResetLive() {
	m.active = nil
	m.selection = structure.NewKeySet()
	m.nearby = structure.NewKeySet()
	m.anchor = nil
	m.revision++
}

// ─────────────────────────────────────────────────────────────────────────────
// Style, scheme and nearby toggle of the live context
// ─────────────────────────────────────────────────────────────────────────────

// SetStyle sets the atom style of the live context only.
func (m *Machine) SetStyle(s render.StyleKind) {
	if m.active != nil {
		m.active.Style = s
	} else {
		m.globalStyle = s
	}
	m.revision++
}

// SetScheme sets the color scheme of the live context only.
func (m *Machine) SetScheme(s render.Scheme) {
	if m.active != nil {
		m.active.Scheme = s
	} else {
		m.globalScheme = s
	}
	m.revision++
}

// ToggleNearby flips the nearby feature and returns the new value.
func (m *Machine) ToggleNearby() bool {
	m.SetShowNearby(!m.showNearby)
	return m.showNearby
}

// SetShowNearby enables or disables the nearby feature.
func (m *Machine) SetShowNearby(on bool) {
	m.showNearby = on
	m.refresh()
}

// ─────────────────────────────────────────────────────────────────────────────
// Read side
// ─────────────────────────────────────────────────────────────────────────────

// Selection returns a copy of the live selection.
func (m *Machine) Selection() structure.KeySet { return m.selection.Clone() }

// Nearby returns a copy of the live nearby set.
func (m *Machine) Nearby() structure.KeySet { return m.nearby.Clone() }

// Anchor returns the range anchor.
func (m *Machine) Anchor() (structure.ResidueKey, bool) {
	if m.anchor == nil {
		return structure.ResidueKey{}, false
	}
	return *m.anchor, true
}

// ShowNearby reports whether the nearby feature is on.
func (m *Machine) ShowNearby() bool { return m.showNearby }

// Style returns the style of the live context.
func (m *Machine) Style() render.StyleKind {
	if m.active != nil {
		return m.active.Style
	}
	return m.globalStyle
}

// Scheme returns the scheme of the live context.
func (m *Machine) Scheme() render.Scheme {
	if m.active != nil {
		return m.active.Scheme
	}
	return m.globalScheme
}

// GlobalStyle returns the global context's style regardless of which context
// is live.
func (m *Machine) GlobalStyle() (render.StyleKind, render.Scheme) {
	return m.globalStyle, m.globalScheme
}

// ActiveRegion returns the live region id, or false in the global context.
func (m *Machine) ActiveRegion() (int, bool) {
	if m.active == nil {
		return 0, false
	}
	return m.active.ID, true
}

// Regions lists regions by id.
func (m *Machine) Regions() []RegionView {
	out := make([]RegionView, 0, len(m.regions))
	for _, r := range m.regions {
		out = append(out, r.view(r == m.active))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Region returns one region.
func (m *Machine) Region(id int) (RegionView, error) {
	r := m.region(id)
	if r == nil {
		return RegionView{}, errors.New(errors.ErrCodeRegionNotFound, "region not found").WithDetail(itoa(id))
	}
	return r.view(r == m.active), nil
}

// Revision increases on every state change.
func (m *Machine) Revision() uint64 { return m.revision }
