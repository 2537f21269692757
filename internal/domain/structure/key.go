package structure

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/irisuniflora/VF/pkg/errors"
)

// ResidueKey identifies a residue by chain and sequence number.  Two residues
// are the same iff their keys are equal.
type ResidueKey struct {
	Chain string `json:"chain"`
	Seq   int    `json:"resi"`
}

// Key is shorthand for ResidueKey{Chain: chain, Seq: seq}.
func Key(chain string, seq int) ResidueKey {
	return ResidueKey{Chain: chain, Seq: seq}
}

// String renders the key as "A:42".
func (k ResidueKey) String() string {
	return k.Chain + ":" + strconv.Itoa(k.Seq)
}

// Less orders keys by chain, then sequence number.
func (k ResidueKey) Less(o ResidueKey) bool {
	if k.Chain != o.Chain {
		return k.Chain < o.Chain
	}
	return k.Seq < o.Seq
}

// ParseResidueKey parses "A:42" (or "A42" when the chain is a single letter).
func ParseResidueKey(s string) (ResidueKey, error) {
	s = strings.TrimSpace(s)
	chain, num, ok := strings.Cut(s, ":")
	if !ok {
		if len(s) < 2 {
			return ResidueKey{}, errors.New(errors.ErrCodeResidueKeyInvalid, "invalid residue key").WithDetail(s)
		}
		chain, num = s[:1], s[1:]
	}
	seq, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil || chain == "" {
		return ResidueKey{}, errors.New(errors.ErrCodeResidueKeyInvalid, "invalid residue key").WithDetail(s)
	}
	return ResidueKey{Chain: chain, Seq: seq}, nil
}

// KeySet is a set of residue keys.  The zero value is not usable; create one
// with NewKeySet.
type KeySet map[ResidueKey]struct{}

// NewKeySet returns a set holding keys.
func NewKeySet(keys ...ResidueKey) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts k and reports whether it was absent.
func (s KeySet) Add(k ResidueKey) bool {
	if _, ok := s[k]; ok {
		return false
	}
	s[k] = struct{}{}
	return true
}

// Remove deletes k and reports whether it was present.
func (s KeySet) Remove(k ResidueKey) bool {
	if _, ok := s[k]; !ok {
		return false
	}
	delete(s, k)
	return true
}

// Has reports membership.
func (s KeySet) Has(k ResidueKey) bool {
	_, ok := s[k]
	return ok
}

// Len returns the number of keys.
func (s KeySet) Len() int { return len(s) }

// Clone returns an independent copy.
func (s KeySet) Clone() KeySet {
	out := make(KeySet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold exactly the same keys.
func (s KeySet) Equal(o KeySet) bool {
	if len(s) != len(o) {
		return false
	}
	for k := range s {
		if !o.Has(k) {
			return false
		}
	}
	return true
}

// Intersects reports whether any key is in both sets.
func (s KeySet) Intersects(o KeySet) bool {
	small, big := s, o
	if len(big) < len(small) {
		small, big = big, small
	}
	for k := range small {
		if big.Has(k) {
			return true
		}
	}
	return false
}

// Sorted returns the keys ordered by chain then sequence number.
func (s KeySet) Sorted() []ResidueKey {
	out := make([]ResidueKey, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Strings renders the sorted keys.
func (s KeySet) Strings() []string {
	keys := s.Sorted()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

// ParseKeyList parses a comma-separated list of keys and inclusive ranges,
// e.g. "A:10-20,B:5".  Ranges are expanded against reg so numbering gaps are
// honored; with a nil registry every integer in the range is produced.
func ParseKeyList(spec string, reg *Registry) (KeySet, error) {
	out := NewKeySet()
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		chain, rng, ok := strings.Cut(part, ":")
		lo, hi, isRange := strings.Cut(rng, "-")
		if !ok || !isRange || lo == "" {
			k, err := ParseResidueKey(part)
			if err != nil {
				return nil, err
			}
			out.Add(k)
			continue
		}
		from, err1 := strconv.Atoi(lo)
		to, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil {
			return nil, errors.New(errors.ErrCodeResidueKeyInvalid, "invalid residue range").WithDetail(part)
		}
		if reg != nil {
			for _, k := range reg.RangeInChain(chain, from, to) {
				out.Add(k)
			}
			continue
		}
		if from > to {
			from, to = to, from
		}
		for i := from; i <= to; i++ {
			out.Add(Key(chain, i))
		}
	}
	return out, nil
}

// MustKeys builds a KeySet from "A:1"-style strings and panics on a bad key.
// Tests and fixtures only.
func MustKeys(keys ...string) KeySet {
	out := NewKeySet()
	for _, s := range keys {
		k, err := ParseResidueKey(s)
		if err != nil {
			panic(fmt.Sprintf("structure: bad key %q: %v", s, err))
		}
		out.Add(k)
	}
	return out
}
