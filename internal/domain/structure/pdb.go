package structure

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/irisuniflora/VF/pkg/errors"
)

type ssRange struct {
	chain  string
	lo, hi int
	class  SecondaryStructure
}

// ReadPDB reads ATOM and HETATM records of the first model from PDB text.
// HELIX and SHEET records assign secondary structure.  Alternate locations
// other than blank or 'A' are skipped.
func ReadPDB(r io.Reader) ([]Atom, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		atoms  []Atom
		ranges []ssRange
		lineNo int
		models int
	)

scan:
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		switch record(line) {
		case "MODEL":
			models++
			if models > 1 {
				break scan
			}
		case "ENDMDL":
			break scan
		case "HELIX":
			if rg, ok := parseHelix(line); ok {
				ranges = append(ranges, rg)
			}
		case "SHEET":
			if rg, ok := parseSheet(line); ok {
				ranges = append(ranges, rg)
			}
		case "ATOM", "HETATM":
			a, skip, err := parseAtomLine(line)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeStructureParseFailed, "malformed coordinate record").
					WithDetail("line " + strconv.Itoa(lineNo))
			}
			if !skip {
				atoms = append(atoms, a)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStructureParseFailed, "failed to read structure text")
	}
	if len(atoms) == 0 {
		return nil, errors.New(errors.ErrCodeStructureEmpty, "no ATOM or HETATM records found")
	}

	for i := range atoms {
		atoms[i].SS = lookupSS(ranges, atoms[i].Key)
	}
	return atoms, nil
}

// ParsePDB reads PDB text and builds its Registry.
func ParsePDB(r io.Reader) (*Registry, error) {
	atoms, err := ReadPDB(r)
	if err != nil {
		return nil, err
	}
	return NewRegistry(atoms), nil
}

func record(line string) string {
	if len(line) > 6 {
		line = line[:6]
	}
	return strings.TrimSpace(line)
}

// column returns line[from:to] trimmed, tolerating short lines.
func column(line string, from, to int) string {
	if from >= len(line) {
		return ""
	}
	if to > len(line) {
		to = len(line)
	}
	return strings.TrimSpace(line[from:to])
}

func parseAtomLine(line string) (Atom, bool, error) {
	if len(line) < 54 {
		return Atom{}, false, errors.New(errors.ErrCodeStructureParseFailed, "record shorter than 54 columns")
	}
	if alt := line[16]; alt != ' ' && alt != 'A' {
		return Atom{}, true, nil
	}

	a := Atom{
		Name:    column(line, 12, 16),
		ResName: column(line, 17, 20),
		Hetero:  strings.HasPrefix(line, "HETATM"),
	}
	a.Serial, _ = strconv.Atoi(column(line, 6, 11))

	chain := column(line, 21, 22)
	seq, err := strconv.Atoi(column(line, 22, 26))
	if err != nil {
		return Atom{}, false, err
	}
	a.Key = ResidueKey{Chain: chain, Seq: seq}

	if a.Pos.X, err = strconv.ParseFloat(column(line, 30, 38), 64); err != nil {
		return Atom{}, false, err
	}
	if a.Pos.Y, err = strconv.ParseFloat(column(line, 38, 46), 64); err != nil {
		return Atom{}, false, err
	}
	if a.Pos.Z, err = strconv.ParseFloat(column(line, 46, 54), 64); err != nil {
		return Atom{}, false, err
	}
	if b := column(line, 60, 66); b != "" {
		if v, err := strconv.ParseFloat(b, 64); err == nil {
			a.BFactor, a.HasBFactor = v, true
		}
	}

	a.Element = strings.ToUpper(column(line, 76, 78))
	if a.Element == "" {
		a.Element = inferElement(a.Name, a.ResName, a.Hetero)
	}
	return a, false, nil
}

// inferElement guesses the element from the atom name when columns 77-78 are
// blank.  Hetero atoms whose name equals a two-letter ion (ZN, MG, CL...) keep
// both letters.
func inferElement(name, resName string, hetero bool) string {
	trimmed := strings.TrimLeftFunc(name, unicode.IsDigit)
	if trimmed == "" {
		return ""
	}
	upper := strings.ToUpper(trimmed)
	if hetero && len(upper) >= 2 && ionCodes[upper[:2]] && strings.EqualFold(resName, upper[:2]) {
		return upper[:2]
	}
	return upper[:1]
}

func parseHelix(line string) (ssRange, bool) {
	lo, err1 := strconv.Atoi(column(line, 21, 25))
	hi, err2 := strconv.Atoi(column(line, 33, 37))
	if err1 != nil || err2 != nil {
		return ssRange{}, false
	}
	return ssRange{chain: column(line, 19, 20), lo: lo, hi: hi, class: Helix}, true
}

func parseSheet(line string) (ssRange, bool) {
	lo, err1 := strconv.Atoi(column(line, 22, 26))
	hi, err2 := strconv.Atoi(column(line, 33, 37))
	if err1 != nil || err2 != nil {
		return ssRange{}, false
	}
	return ssRange{chain: column(line, 21, 22), lo: lo, hi: hi, class: Sheet}, true
}

func lookupSS(ranges []ssRange, k ResidueKey) SecondaryStructure {
	for _, rg := range ranges {
		if rg.chain == k.Chain && k.Seq >= rg.lo && k.Seq <= rg.hi {
			return rg.class
		}
	}
	return Coil
}
