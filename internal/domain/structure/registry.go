// Package structure holds the residue registry: the normalized, per-chain view
// of a loaded structure that every other part of the viewer reads from.
package structure

import (
	"sort"
	"strings"
)

// SequenceEntry is one polymer residue in chain order.
type SequenceEntry struct {
	Key   ResidueKey `json:"key"`
	Code3 string     `json:"resn"`
	Code1 string     `json:"code"`
}

// HeteroResidue is a non-polymer, non-water residue with the averaged
// coordinate of its atoms, used for symbol placement.
type HeteroResidue struct {
	Key       ResidueKey  `json:"key"`
	Code3     string      `json:"resn"`
	Class     HeteroClass `json:"-"`
	Centroid  Vec3        `json:"centroid"`
	AtomCount int         `json:"atoms"`
}

// Registry is the read-only residue index of one structure.  It is built once
// and never mutated, so concurrent readers need no locking.
type Registry struct {
	chains     []string
	chainIndex map[string]int
	sequences  map[string][]SequenceEntry
	atoms      map[ResidueKey][]Atom
	names      map[ResidueKey]string
	polymer    []ResidueKey
	entries    []SequenceEntry
	polyIndex  map[ResidueKey]int
	hetero     []HeteroResidue
	heteroIdx  map[ResidueKey]int
	atomCount  int
	dropped    int

	bMin, bMax float64
	hasB       bool
}

type residueDef struct {
	code  string
	names map[string]bool
}

// NewRegistry indexes atoms.  Water residues are dropped.  A residue key seen
// again after another residue intervened, or with a different residue name,
// is a duplicate definition and is ignored (first seen wins); repeated atom
// names inside a residue (alternate locations) are ignored the same way.
// Residues outside the standard amino-acid table become hetero residues and
// their atoms are flagged Hetero.
func NewRegistry(atoms []Atom) *Registry {
	r := &Registry{
		chainIndex: make(map[string]int),
		sequences:  make(map[string][]SequenceEntry),
		atoms:      make(map[ResidueKey][]Atom),
		names:      make(map[ResidueKey]string),
		polyIndex:  make(map[ResidueKey]int),
		heteroIdx:  make(map[ResidueKey]int),
	}

	defs := make(map[ResidueKey]*residueDef)
	closed := make(map[ResidueKey]bool)
	var current ResidueKey
	started := false

	for _, a := range atoms {
		code := strings.ToUpper(strings.TrimSpace(a.ResName))
		if IsWater(code) {
			continue
		}
		k := a.Key
		if started && k != current {
			closed[current] = true
		}
		current, started = k, true
		if closed[k] {
			r.dropped++
			continue
		}

		def := defs[k]
		if def == nil {
			def = &residueDef{code: code, names: make(map[string]bool)}
			defs[k] = def
			r.register(k, code)
		} else if def.code != code {
			r.dropped++
			continue
		}
		if def.names[a.Name] {
			r.dropped++
			continue
		}
		def.names[a.Name] = true

		a.ResName = code
		a.Hetero = !IsStandardResidue(code)
		r.atoms[k] = append(r.atoms[k], a)
		r.atomCount++
		if a.HasBFactor {
			if !r.hasB || a.BFactor < r.bMin {
				r.bMin = a.BFactor
			}
			if !r.hasB || a.BFactor > r.bMax {
				r.bMax = a.BFactor
			}
			r.hasB = true
		}
	}

	r.finish()
	return r
}

func (r *Registry) register(k ResidueKey, code string) {
	r.names[k] = code
	if _, ok := r.chainIndex[k.Chain]; !ok {
		r.chainIndex[k.Chain] = len(r.chains)
		r.chains = append(r.chains, k.Chain)
	}
	if IsStandardResidue(code) {
		r.sequences[k.Chain] = append(r.sequences[k.Chain], SequenceEntry{Key: k, Code3: code, Code1: OneLetter(code)})
		return
	}
	r.heteroIdx[k] = len(r.hetero)
	r.hetero = append(r.hetero, HeteroResidue{Key: k, Code3: code, Class: ClassifyHetero(code)})
}

func (r *Registry) finish() {
	for _, chain := range r.chains {
		seq := r.sequences[chain]
		sort.SliceStable(seq, func(i, j int) bool { return seq[i].Key.Seq < seq[j].Key.Seq })
		for _, e := range seq {
			r.polyIndex[e.Key] = len(r.polymer)
			r.polymer = append(r.polymer, e.Key)
			r.entries = append(r.entries, e)
		}
	}
	for i := range r.hetero {
		h := &r.hetero[i]
		var sum Vec3
		atoms := r.atoms[h.Key]
		for _, a := range atoms {
			sum = sum.Add(a.Pos)
		}
		h.AtomCount = len(atoms)
		if len(atoms) > 0 {
			h.Centroid = sum.Scale(1 / float64(len(atoms)))
		}
	}
}

// Chains returns chain identifiers in order of first appearance.
func (r *Registry) Chains() []string {
	return append([]string(nil), r.chains...)
}

// ChainIndex returns the ordinal of chain, or -1.
func (r *Registry) ChainIndex(chain string) int {
	if i, ok := r.chainIndex[chain]; ok {
		return i
	}
	return -1
}

// Sequence returns the polymer residues of chain ordered by sequence number.
// The slice is shared; callers must not modify it.
func (r *Registry) Sequence(chain string) []SequenceEntry {
	return r.sequences[chain]
}

// Residues returns every polymer residue key in chain, then sequence order.
func (r *Registry) Residues() []ResidueKey {
	return append([]ResidueKey(nil), r.polymer...)
}

// Len is the number of polymer residues.
func (r *Registry) Len() int { return len(r.polymer) }

// Index returns the position of a polymer residue in Residues().
func (r *Registry) Index(k ResidueKey) (int, bool) {
	i, ok := r.polyIndex[k]
	return i, ok
}

// Entry returns the sequence entry for a polymer residue.
func (r *Registry) Entry(k ResidueKey) (SequenceEntry, bool) {
	i, ok := r.polyIndex[k]
	if !ok {
		return SequenceEntry{}, false
	}
	return r.entries[i], true
}

// Atoms returns every atom of residue k, or nil when k is unknown.  The slice
// is shared; callers must not modify it.
func (r *Registry) Atoms(k ResidueKey) []Atom {
	return r.atoms[k]
}

// Has reports whether k names any residue (polymer or hetero).
func (r *Registry) Has(k ResidueKey) bool {
	_, ok := r.names[k]
	return ok
}

// IsPolymer reports whether k is a standard residue with a sequence entry.
func (r *Registry) IsPolymer(k ResidueKey) bool {
	_, ok := r.polyIndex[k]
	return ok
}

// ResidueName returns the three-letter code of k, or "".
func (r *Registry) ResidueName(k ResidueKey) string {
	return r.names[k]
}

// Hetero returns the hetero residues in order of first appearance.
func (r *Registry) Hetero() []HeteroResidue {
	return append([]HeteroResidue(nil), r.hetero...)
}

// HeteroResidue looks up a hetero residue by key.
func (r *Registry) HeteroResidue(k ResidueKey) (HeteroResidue, bool) {
	i, ok := r.heteroIdx[k]
	if !ok {
		return HeteroResidue{}, false
	}
	return r.hetero[i], true
}

// RangeInChain returns the polymer residues of chain with sequence numbers in
// the inclusive interval [min(lo,hi), max(lo,hi)].  Gaps in numbering are
// simply absent from the result.
func (r *Registry) RangeInChain(chain string, lo, hi int) []ResidueKey {
	if lo > hi {
		lo, hi = hi, lo
	}
	seq := r.sequences[chain]
	start := sort.Search(len(seq), func(i int) bool { return seq[i].Key.Seq >= lo })
	var out []ResidueKey
	for i := start; i < len(seq) && seq[i].Key.Seq <= hi; i++ {
		out = append(out, seq[i].Key)
	}
	return out
}

// AtomCount returns the number of indexed atoms.
func (r *Registry) AtomCount() int { return r.atomCount }

// Dropped returns how many atoms were discarded as duplicate definitions.
func (r *Registry) Dropped() int { return r.dropped }

// BFactorRange returns the min and max temperature factor over all atoms.
func (r *Registry) BFactorRange() (min, max float64, ok bool) {
	return r.bMin, r.bMax, r.hasB
}

// MeanBFactor averages the temperature factor over k's atoms.
func (r *Registry) MeanBFactor(k ResidueKey) (float64, bool) {
	var sum float64
	n := 0
	for _, a := range r.atoms[k] {
		if a.HasBFactor {
			sum += a.BFactor
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// SecondaryStructure returns the fold class of k, taken from its CA atom (or
// the first atom when CA is absent).
func (r *Registry) SecondaryStructure(k ResidueKey) SecondaryStructure {
	atoms := r.atoms[k]
	for _, a := range atoms {
		if a.Name == "CA" {
			return a.SS
		}
	}
	if len(atoms) > 0 {
		return atoms[0].SS
	}
	return Coil
}
