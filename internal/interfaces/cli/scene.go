package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/irisuniflora/VF/internal/application/loader"
	"github.com/irisuniflora/VF/internal/config"
	"github.com/irisuniflora/VF/internal/domain/composition"
	"github.com/irisuniflora/VF/internal/domain/render"
	"github.com/irisuniflora/VF/internal/domain/structure"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
	"github.com/irisuniflora/VF/internal/infrastructure/render/memory"
	"github.com/irisuniflora/VF/pkg/errors"
)

// SceneResult is the output of `vf scene`: the draw records and shapes the
// engine issues for one selection.
type SceneResult struct {
	File      string                   `json:"file"`
	Selection []string                 `json:"selection"`
	Nearby    []string                 `json:"nearby"`
	Layers    map[string]int           `json:"layers"`
	Styles    []composition.DrawRecord `json:"styles"`
	Shapes    []render.Shape           `json:"shapes"`
	Failed    int                      `json:"failed,omitempty"`
}

func (r SceneResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d draw records, %d shapes\n", r.File, len(r.Styles), len(r.Shapes))
	for _, rec := range r.Styles {
		fmt.Fprintf(&b, "  [%s] %-10s %-9s %-14s %s\n", rec.Layer, rec.Label, rec.Style.Kind, colorOf(rec.Style), rec.Selector.String())
	}
	if r.Failed > 0 {
		fmt.Fprintf(&b, "%d backend calls failed\n", r.Failed)
	}
	return b.String()
}

func (r SceneResult) TableHeaders() []string {
	return []string{"LAYER", "LABEL", "STYLE", "COLOR", "SELECTOR"}
}

func (r SceneResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Styles))
	for _, rec := range r.Styles {
		rows = append(rows, []string{string(rec.Layer), rec.Label, string(rec.Style.Kind), colorOf(rec.Style), rec.Selector.String()})
	}
	return rows
}

func colorOf(s render.StyleSpec) string {
	if s.Color != "" {
		return string(s.Color)
	}
	if s.Scheme != "" {
		return "scheme:" + string(s.Scheme)
	}
	return "-"
}

type sceneOptions struct {
	selection    string
	nearby       bool
	scheme       string
	style        string
	hetero       bool
	interactions bool
	overlay      bool
	chains       []string
	colors       []string
}

func newSceneCmd() *cobra.Command {
	opts := &sceneOptions{}
	cmd := &cobra.Command{
		Use:   "scene <file>",
		Short: "Print the draw records the viewer would issue for a selection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			applyViewerDefaults(cmd, opts, cliCtx.Config.Viewer)

			ctx, cancel := cliCtx.withTimeout(cmd.Context())
			defer cancel()

			_, reg, err := cliCtx.newLoader().Load(ctx, loader.Request{Path: args[0]})
			if err != nil {
				return err
			}
			res, err := composeScene(ctx, reg, args[0], opts, cliCtx.Config.Viewer.NearbyCutoff, cliCtx.Logger)
			if err != nil {
				return err
			}
			return PrintResult(cmd, res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.selection, "select", "", "selected residues, e.g. A:10,A:12-14")
	f.BoolVar(&opts.nearby, "nearby", false, "draw residues near the selection")
	f.StringVar(&opts.scheme, "scheme", "", "color scheme (chain, element, ss, spectrum, bfactor)")
	f.StringVar(&opts.style, "style", "", "atom style (stick, ballstick, sphere, line)")
	f.BoolVar(&opts.hetero, "hetero", false, "draw hetero residues")
	f.BoolVar(&opts.interactions, "interactions", false, "draw interaction edges between selection and nearby")
	f.BoolVar(&opts.overlay, "overlay", false, "draw the selection overlay")
	f.StringSliceVar(&opts.chains, "chains", nil, "visible chains (default: all)")
	f.StringArrayVar(&opts.colors, "color", nil, "explicit color as RESIDUES=COLOR, e.g. A:10-12=#ff0000 (repeatable)")
	return cmd
}

// applyViewerDefaults fills unset flags from the viewer configuration.
func applyViewerDefaults(cmd *cobra.Command, opts *sceneOptions, cfg config.ViewerConfig) {
	f := cmd.Flags()
	if opts.scheme == "" {
		opts.scheme = cfg.DefaultScheme
	}
	if opts.style == "" {
		opts.style = cfg.DefaultStyle
	}
	if !f.Changed("hetero") {
		opts.hetero = cfg.ShowHetero
	}
	if !f.Changed("interactions") {
		opts.interactions = cfg.ShowInteractions
	}
	if !f.Changed("overlay") {
		opts.overlay = cfg.ShowResidueOverlay
	}
}

func composeScene(ctx context.Context, reg *structure.Registry, file string, opts *sceneOptions,
	cutoff float64, logger logging.Logger) (SceneResult, error) {
	style, err := render.ParseAtomStyle(opts.style)
	if err != nil {
		return SceneResult{}, err
	}
	scheme, err := render.ParseScheme(opts.scheme)
	if err != nil {
		return SceneResult{}, err
	}
	sel := structure.NewKeySet()
	if opts.selection != "" {
		if sel, err = structure.ParseKeyList(opts.selection, reg); err != nil {
			return SceneResult{}, err
		}
	}
	colors, err := parseColorAssignments(opts.colors, reg)
	if err != nil {
		return SceneResult{}, err
	}

	backend := memory.New(reg)
	defer backend.Close()
	engine := composition.NewEngine(reg, backend, logger.Named("composition"))

	nearby := engine.Detector().Neighbors(sel, cutoff)
	scene, stats := engine.Render(ctx, composition.Input{
		Selection:        sel,
		Nearby:           nearby,
		ShowNearby:       opts.nearby,
		Overlay:          opts.overlay,
		ShowHetero:       opts.hetero,
		ShowInteractions: opts.interactions,
		Style:            style,
		Scheme:           scheme,
		Colors:           colors,
		Reps:             composition.NewRepresentations(),
		Chains:           composition.NewChainFilter(opts.chains...),
	})

	layers := make(map[string]int)
	for l, n := range scene.CountByLayer() {
		layers[string(l)] = n
	}
	return SceneResult{
		File:      file,
		Selection: sel.Strings(),
		Nearby:    nearby.Strings(),
		Layers:    layers,
		Styles:    scene.Styles,
		Shapes:    scene.Shapes,
		Failed:    stats.Failed(),
	}, nil
}

// parseColorAssignments reads RESIDUES=COLOR pairs.  Later pairs override
// earlier ones for the residues they share.
func parseColorAssignments(specs []string, reg *structure.Registry) (*composition.ColorMap, error) {
	colors := composition.NewColorMap()
	for _, spec := range specs {
		keys, value, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, errors.New(errors.ErrCodeValidation, "color must be RESIDUES=COLOR").WithDetail(spec)
		}
		c, err := render.ParseColor(value)
		if err != nil {
			return nil, err
		}
		set, err := structure.ParseKeyList(keys, reg)
		if err != nil {
			return nil, err
		}
		colors.Set(set, c)
	}
	return colors, nil
}
