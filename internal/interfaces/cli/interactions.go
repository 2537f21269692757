package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/irisuniflora/VF/internal/application/loader"
	"github.com/irisuniflora/VF/internal/domain/interaction"
	"github.com/irisuniflora/VF/internal/domain/structure"
	"github.com/irisuniflora/VF/pkg/errors"
)

// InteractionsResult is the output of `vf interactions`.
type InteractionsResult struct {
	File   string                `json:"file"`
	A      []string              `json:"a,omitempty"`
	B      []string              `json:"b,omitempty"`
	Nearby []string              `json:"nearby,omitempty"`
	Counts map[string]int        `json:"counts,omitempty"`
	Edges  []interaction.Readout `json:"edges"`
}

func (r InteractionsResult) String() string {
	var b strings.Builder
	if r.Nearby != nil {
		fmt.Fprintf(&b, "nearby (%d): %s\n", len(r.Nearby), strings.Join(r.Nearby, ","))
	}
	if r.A == nil {
		return b.String()
	}
	fmt.Fprintf(&b, "%d interactions between %d and %d residues\n", len(r.Edges), len(r.A), len(r.B))
	for _, e := range r.Edges {
		b.WriteString("  ")
		b.WriteString(e.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func (r InteractionsResult) TableHeaders() []string {
	return []string{"FROM", "TO", "KIND", "DISTANCE"}
}

func (r InteractionsResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Edges))
	for _, e := range r.Edges {
		rows = append(rows, []string{e.From, e.To, e.Label, fmt.Sprintf("%.1f", e.Distance)})
	}
	return rows
}

type interactionsOptions struct {
	a, b, nearby string
	cutoff       float64
}

func newInteractionsCmd() *cobra.Command {
	opts := &interactionsOptions{}
	cmd := &cobra.Command{
		Use:   "interactions <file>",
		Short: "Classify non-covalent interactions between two residue sets",
		Long: "Residue lists use the viewer syntax, e.g. \"A:10-20,B:5\".  Without --b the\n" +
			"second set is every residue near --a, as the viewer does for a selection.\n" +
			"--nearby prints the residues near the given set.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if opts.a == "" && opts.nearby == "" {
				return errors.New(errors.ErrCodeValidation, "one of --a or --nearby is required")
			}
			if opts.cutoff <= 0 {
				opts.cutoff = cliCtx.Config.Viewer.NearbyCutoff
			}
			ctx, cancel := cliCtx.withTimeout(cmd.Context())
			defer cancel()

			_, reg, err := cliCtx.newLoader().Load(ctx, loader.Request{Path: args[0]})
			if err != nil {
				return err
			}
			res, err := computeInteractions(reg, args[0], opts)
			if err != nil {
				return err
			}
			return PrintResult(cmd, res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.a, "a", "", "first residue set")
	f.StringVar(&opts.b, "b", "", "second residue set (default: residues near --a)")
	f.StringVar(&opts.nearby, "nearby", "", "print residues near this set")
	f.Float64Var(&opts.cutoff, "cutoff", 0, "nearby distance cutoff in Å (default: viewer.nearby_cutoff)")
	return cmd
}

func computeInteractions(reg *structure.Registry, file string, opts *interactionsOptions) (InteractionsResult, error) {
	det := interaction.NewDetector(reg)
	res := InteractionsResult{File: file}

	if opts.nearby != "" {
		probe, err := structure.ParseKeyList(opts.nearby, reg)
		if err != nil {
			return res, err
		}
		res.Nearby = det.Neighbors(probe, opts.cutoff).Strings()
	}
	if opts.a == "" {
		return res, nil
	}

	setA, err := structure.ParseKeyList(opts.a, reg)
	if err != nil {
		return res, err
	}
	var setB structure.KeySet
	if opts.b != "" {
		if setB, err = structure.ParseKeyList(opts.b, reg); err != nil {
			return res, err
		}
	} else {
		setB = det.Neighbors(setA, opts.cutoff)
	}

	edges := det.Detect(setA, setB)
	res.A = setA.Strings()
	res.B = setB.Strings()
	res.Edges = interaction.DescribeAll(edges)
	res.Counts = make(map[string]int)
	for k, n := range interaction.Count(edges) {
		res.Counts[k.String()] = n
	}
	return res, nil
}
