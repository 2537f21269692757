package render

import (
	"sort"
	"strconv"
	"strings"

	"github.com/irisuniflora/VF/internal/domain/structure"
)

// SelectorPart selects residues of one chain by sequence number.
type SelectorPart struct {
	Chain string `json:"chain"`
	Resi  []int  `json:"resi"`
}

// Selector is an atom selector: a union of per-chain residue-number sets,
// optionally restricted by hetero flag and element.  A selector with no parts
// matches every residue.
type Selector struct {
	Parts    []SelectorPart `json:"parts,omitempty"`
	Hetero   *bool          `json:"hetflag,omitempty"`
	Elements []string       `json:"elem,omitempty"`
}

// SelectKeys builds a selector from residue keys.  Parts are ordered by chain
// and residue numbers ascend without duplicates, so equal key sets always
// produce equal selectors.
func SelectKeys(keys []structure.ResidueKey) Selector {
	byChain := make(map[string][]int)
	for _, k := range keys {
		byChain[k.Chain] = append(byChain[k.Chain], k.Seq)
	}
	chains := make([]string, 0, len(byChain))
	for c := range byChain {
		chains = append(chains, c)
	}
	sort.Strings(chains)

	sel := Selector{Parts: make([]SelectorPart, 0, len(chains))}
	for _, c := range chains {
		nums := byChain[c]
		sort.Ints(nums)
		uniq := nums[:0]
		for i, n := range nums {
			if i == 0 || n != nums[i-1] {
				uniq = append(uniq, n)
			}
		}
		sel.Parts = append(sel.Parts, SelectorPart{Chain: c, Resi: uniq})
	}
	return sel
}

// SelectSet is SelectKeys over a key set.
func SelectSet(set structure.KeySet) Selector {
	return SelectKeys(set.Sorted())
}

// WithHetero returns a copy restricted to hetero (true) or polymer (false)
// atoms.
func (s Selector) WithHetero(het bool) Selector {
	s.Hetero = &het
	return s
}

// Empty reports whether the selector names no residues at all.  A selector
// with no parts is "all", not empty; Empty is true only for parts with no
// residue numbers.
func (s Selector) Empty() bool {
	if len(s.Parts) == 0 {
		return false
	}
	for _, p := range s.Parts {
		if len(p.Resi) > 0 {
			return false
		}
	}
	return true
}

// Keys lists the residue keys the selector names.
func (s Selector) Keys() []structure.ResidueKey {
	var out []structure.ResidueKey
	for _, p := range s.Parts {
		for _, n := range p.Resi {
			out = append(out, structure.Key(p.Chain, n))
		}
	}
	return out
}

// Matches reports whether atom a is selected.
func (s Selector) Matches(a structure.Atom) bool {
	if s.Hetero != nil && *s.Hetero != a.Hetero {
		return false
	}
	if len(s.Elements) > 0 {
		found := false
		for _, e := range s.Elements {
			if strings.EqualFold(e, a.Element) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(s.Parts) == 0 {
		return true
	}
	for _, p := range s.Parts {
		if p.Chain != a.Key.Chain {
			continue
		}
		i := sort.SearchInts(p.Resi, a.Key.Seq)
		return i < len(p.Resi) && p.Resi[i] == a.Key.Seq
	}
	return false
}

// String renders the selector compactly, collapsing consecutive numbers into
// ranges: "A:1-3,7;B:10 het=false".  It is stable for equal selectors.
func (s Selector) String() string {
	var b strings.Builder
	if len(s.Parts) == 0 {
		b.WriteString("*")
	}
	for i, p := range s.Parts {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(p.Chain)
		b.WriteByte(':')
		writeRuns(&b, p.Resi)
	}
	if s.Hetero != nil {
		b.WriteString(" het=")
		b.WriteString(strconv.FormatBool(*s.Hetero))
	}
	if len(s.Elements) > 0 {
		b.WriteString(" elem=")
		b.WriteString(strings.Join(s.Elements, ","))
	}
	return b.String()
}

func writeRuns(b *strings.Builder, nums []int) {
	for i := 0; i < len(nums); {
		j := i
		for j+1 < len(nums) && nums[j+1] == nums[j]+1 {
			j++
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(nums[i]))
		if j > i {
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(nums[j]))
		}
		i = j + 1
	}
}
