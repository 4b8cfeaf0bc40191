package chart

// Granularity is the time bucket used for axis labelling.
type Granularity string

const (
	Hourly Granularity = "hourly"
	Daily  Granularity = "daily"
)

// hourlyMaxDays is the longest window still labelled by hour.
const hourlyMaxDays = 7

// GranularityFor returns Hourly for windows up to 7 days and Daily beyond.
func GranularityFor(days int) Granularity {
	if days <= hourlyMaxDays {
		return Hourly
	}
	return Daily
}

// TickLayout returns the time layout used for x-axis tick labels.
func (g Granularity) TickLayout() string {
	if g == Hourly {
		return "Jan 02 15:04"
	}
	return "Jan 02"
}
