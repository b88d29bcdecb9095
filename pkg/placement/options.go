package placement

import "slices"

// Default tunables.
const (
	DefaultPadding                = 8.0
	DefaultNativeCorrection       = 4.0
	DefaultMaxHeightInset         = 50.0
	DefaultContentHeightThreshold = 50.0
	DefaultGenerousMaxHeightRatio = 0.45
	DefaultTightMaxHeight         = 200.0
	DefaultNavWidthRatio          = 0.85
	DefaultNavMaxWidth            = 320.0
)

// Options are the engine tunables. The zero value is not useful; start from
// [DefaultOptions].
type Options struct {
	// Padding is kept between the panel and the viewport edges by the fit
	// predicates and edge-hugging alignment.
	Padding float64 `json:"padding" toml:"padding"`

	// Native enables NativeCorrection on bottom placements. Hosts that
	// measure anchors below a system bar set this.
	Native           bool    `json:"native" toml:"native"`
	NativeCorrection float64 `json:"native_correction" toml:"native_correction"`

	// MaxHeightInset is subtracted from the larger vertical space to derive
	// the natural maxHeight.
	MaxHeightInset float64 `json:"max_height_inset" toml:"max_height_inset"`

	// ContentHeightThreshold biases the default heuristic toward bottom for
	// panels at least this tall.
	ContentHeightThreshold float64 `json:"content_height_threshold" toml:"content_height_threshold"`

	// A maxHeight constraint at or above GenerousMaxHeightRatio of the
	// viewport height only lowers the natural bound; one below
	// TightMaxHeight pixels is applied as-is.
	GenerousMaxHeightRatio float64 `json:"generous_max_height_ratio" toml:"generous_max_height_ratio"`
	TightMaxHeight         float64 `json:"tight_max_height" toml:"tight_max_height"`

	NavWidthRatio float64 `json:"nav_width_ratio" toml:"nav_width_ratio"`
	NavMaxWidth   float64 `json:"nav_max_width" toml:"nav_max_width"`

	// Device classes on which the corresponding flags take effect.
	BottomSheetClasses []DeviceClass `json:"bottom_sheet_classes" toml:"bottom_sheet_classes"`
	NavigationClasses  []DeviceClass `json:"navigation_classes" toml:"navigation_classes"`
}

// DefaultOptions returns the default tunables.
func DefaultOptions() Options {
	return Options{
		Padding:                DefaultPadding,
		NativeCorrection:       DefaultNativeCorrection,
		MaxHeightInset:         DefaultMaxHeightInset,
		ContentHeightThreshold: DefaultContentHeightThreshold,
		GenerousMaxHeightRatio: DefaultGenerousMaxHeightRatio,
		TightMaxHeight:         DefaultTightMaxHeight,
		NavWidthRatio:          DefaultNavWidthRatio,
		NavMaxWidth:            DefaultNavMaxWidth,
		BottomSheetClasses:     []DeviceClass{Compact, Medium},
		NavigationClasses:      []DeviceClass{Compact, Medium},
	}
}

// Option configures an [Engine].
type Option func(*Options)

// WithOptions replaces every tunable with o.
func WithOptions(o Options) Option {
	return func(dst *Options) {
		*dst = o
		dst.BottomSheetClasses = slices.Clone(o.BottomSheetClasses)
		dst.NavigationClasses = slices.Clone(o.NavigationClasses)
	}
}

// WithPadding sets the viewport edge padding.
func WithPadding(p float64) Option {
	return func(o *Options) { o.Padding = p }
}

// WithNative toggles the native vertical correction.
func WithNative(native bool) Option {
	return func(o *Options) { o.Native = native }
}

// WithNativeCorrection sets the magnitude of the native vertical correction.
func WithNativeCorrection(px float64) Option {
	return func(o *Options) { o.NativeCorrection = px }
}

// WithMaxHeightPolicy sets the two maxHeight constraint thresholds.
func WithMaxHeightPolicy(generousRatio, tight float64) Option {
	return func(o *Options) {
		o.GenerousMaxHeightRatio = generousRatio
		o.TightMaxHeight = tight
	}
}

// WithNavigationWidth sets the navigation panel width ratio and cap.
func WithNavigationWidth(ratio, maxWidth float64) Option {
	return func(o *Options) {
		o.NavWidthRatio = ratio
		o.NavMaxWidth = maxWidth
	}
}

// WithBottomSheetClasses sets the device classes that honor the bottom-sheet flag.
func WithBottomSheetClasses(classes ...DeviceClass) Option {
	return func(o *Options) { o.BottomSheetClasses = slices.Clone(classes) }
}

// WithNavigationClasses sets the device classes that honor the navigation flag.
func WithNavigationClasses(classes ...DeviceClass) Option {
	return func(o *Options) { o.NavigationClasses = slices.Clone(classes) }
}
