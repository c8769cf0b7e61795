package sections

// Policy holds the tunable thresholds of the segmentation heuristics.
type Policy struct {
	// MaxTitleWords is the largest word count a first line may have to be
	// accepted as the document title.
	MaxTitleWords int

	// Windows (in characters) searched when a section name has to be
	// re-derived from its content.
	AbstractWindow     int // leading
	IntroductionWindow int // leading
	ConclusionWindow   int // trailing
	ReferencesWindow   int // trailing

	// KeepPreamble keeps preamble text that follows an accepted title line
	// as its own "preamble" section instead of discarding it.
	KeepPreamble bool
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MaxTitleWords:      25,
		AbstractWindow:     600,
		IntroductionWindow: 800,
		ConclusionWindow:   1500,
		ReferencesWindow:   2000,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MaxTitleWords <= 0 {
		p.MaxTitleWords = d.MaxTitleWords
	}
	if p.AbstractWindow <= 0 {
		p.AbstractWindow = d.AbstractWindow
	}
	if p.IntroductionWindow <= 0 {
		p.IntroductionWindow = d.IntroductionWindow
	}
	if p.ConclusionWindow <= 0 {
		p.ConclusionWindow = d.ConclusionWindow
	}
	if p.ReferencesWindow <= 0 {
		p.ReferencesWindow = d.ReferencesWindow
	}
	return p
}
