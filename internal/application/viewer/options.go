package viewer

import (
	"time"

	"github.com/irisuniflora/VF/internal/config"
	"github.com/irisuniflora/VF/internal/domain/render"
)

// Options tunes the viewer service.
type Options struct {
	CoalesceWindow     time.Duration
	CameraRetryDelays  []time.Duration
	DragThresholdPx    float64
	DeselectDelay      time.Duration
	NearbyCutoff       float64
	ShowNearby         bool
	ShowHetero         bool
	ShowResidueOverlay bool
	ShowInteractions   bool
	DefaultScheme      render.Scheme
	DefaultStyle       render.StyleKind
	InputBuffer        int
}

// OptionsFromConfig maps the viewer configuration section.
func OptionsFromConfig(cfg config.ViewerConfig) Options {
	return Options{
		CoalesceWindow:     cfg.CoalesceWindow,
		CameraRetryDelays:  append([]time.Duration(nil), cfg.CameraRetryDelays...),
		DragThresholdPx:    cfg.DragThresholdPx,
		DeselectDelay:      cfg.DeselectDelay,
		NearbyCutoff:       cfg.NearbyCutoff,
		ShowNearby:         cfg.ShowNearby,
		ShowHetero:         cfg.ShowHetero,
		ShowResidueOverlay: cfg.ShowResidueOverlay,
		ShowInteractions:   cfg.ShowInteractions,
		DefaultScheme:      render.Scheme(cfg.DefaultScheme),
		DefaultStyle:       render.StyleKind(cfg.DefaultStyle),
		InputBuffer:        cfg.InputBuffer,
	}
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default().Viewer)
}
