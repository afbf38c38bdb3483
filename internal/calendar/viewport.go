package calendar

// ViewportClass groups screen widths sharing one set of layout tunables.
type ViewportClass string

const (
	ViewportCompact ViewportClass = "compact"
	ViewportTablet  ViewportClass = "tablet"
	ViewportDesktop ViewportClass = "desktop"
)

// Width breakpoints in CSS pixels. A width below CompactMaxWidth is compact,
// below TabletMaxWidth tablet and anything else desktop.
const (
	CompactMaxWidth = 600
	TabletMaxWidth  = 1024
)

// Tunables are the pixel metrics of the month grid.
type Tunables struct {
	Class         ViewportClass
	WeekMin       int
	WeekBase      int
	EventLine     int
	WeekPad       int
	MaxWeekHeight int
	HeaderHeight  int
	SafetyMargin  int
}

var viewportTunables = map[ViewportClass]Tunables{
	ViewportCompact: {
		Class:         ViewportCompact,
		WeekMin:       72,
		WeekBase:      72,
		EventLine:     16,
		WeekPad:       8,
		MaxWeekHeight: 220,
		HeaderHeight:  32,
		SafetyMargin:  16,
	},
	ViewportTablet: {
		Class:         ViewportTablet,
		WeekMin:       84,
		WeekBase:      84,
		EventLine:     17,
		WeekPad:       9,
		MaxWeekHeight: 240,
		HeaderHeight:  36,
		SafetyMargin:  20,
	},
	ViewportDesktop: {
		Class:         ViewportDesktop,
		WeekMin:       92,
		WeekBase:      92,
		EventLine:     18,
		WeekPad:       10,
		MaxWeekHeight: 260,
		HeaderHeight:  40,
		SafetyMargin:  24,
	},
}

// ClassForWidth picks the viewport class of a width. Non-positive widths are
// treated as desktop.
func ClassForWidth(width int) ViewportClass {
	switch {
	case width <= 0:
		return ViewportDesktop
	case width < CompactMaxWidth:
		return ViewportCompact
	case width < TabletMaxWidth:
		return ViewportTablet
	}
	return ViewportDesktop
}

// TunablesFor returns the tunables of a class, defaulting to desktop.
func TunablesFor(class ViewportClass) Tunables {
	if t, ok := viewportTunables[class]; ok {
		return t
	}
	return viewportTunables[ViewportDesktop]
}

// TunablesForWidth is TunablesFor(ClassForWidth(width)).
func TunablesForWidth(width int) Tunables {
	return TunablesFor(ClassForWidth(width))
}
