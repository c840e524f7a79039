package thumbnail

// Preset names the fixed output sizes the generator can produce. Arbitrary
// dimensions are deliberately not accepted from the URL.
type Preset string

const (
	PosterSquared Preset = "poster-squared"
	PosterWide    Preset = "poster-wide"
	Avatar        Preset = "avatar"

	// DefaultPreset is used when the request names no preset or an unknown one.
	DefaultPreset = PosterSquared
)

// Size is a thumbnail output size in pixels.
type Size struct {
	Width  int
	Height int
}

// PresetChoices maps preset names to output sizes.
var PresetChoices = map[Preset]Size{
	PosterSquared: {Width: 600, Height: 600},
	PosterWide:    {Width: 1200, Height: 675},
	Avatar:        {Width: 200, Height: 200},
}
