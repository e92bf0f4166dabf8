package route

// Category is the visual class of a place. Higher values take precedence.
type Category int

const (
	CategoryDefault Category = iota
	CategoryOnRoute
	CategoryEnd
	CategoryStart
)

// String returns the category name used in logs and exported overlays.
func (c Category) String() string {
	switch c {
	case CategoryStart:
		return "start"
	case CategoryEnd:
		return "end"
	case CategoryOnRoute:
		return "on-route"
	default:
		return "default"
	}
}

// Classify returns the category of the named place.
//
// Precedence is strict: start > end > on-route > default. A place that is
// both the start and a route stop is always CategoryStart.
func Classify(r *Result, name, start, end string) Category {
	switch {
	case name == start:
		return CategoryStart
	case name == end:
		return CategoryEnd
	case r.OnRoute(name):
		return CategoryOnRoute
	default:
		return CategoryDefault
	}
}
