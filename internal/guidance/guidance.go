// Package guidance holds the preloaded safety guidance served alongside
// alerts. Clients cache the full set on sync so it stays readable with
// zero connectivity.
package guidance

// Topic is one preparedness entry for a hazard category.
type Topic struct {
	ID      string `json:"id"`
	Topic   string `json:"topic"`
	Content string `json:"content"`
}

var topics = []Topic{
	{
		ID:      "guid-earthquake",
		Topic:   "Earthquake Safety",
		Content: "Drop, Cover, Hold On. Stay away from glass and heavy furniture. After shaking stops, check for injuries and gas leaks.",
	},
	{
		ID:      "guid-flood",
		Topic:   "Flood Safety",
		Content: "Move to higher ground, avoid driving through flood water, bring emergency kit and important documents.",
	},
	{
		ID:      "guid-storm",
		Topic:   "Severe Storm",
		Content: "Secure windows and outdoor objects, stay indoors away from windows during thunderstorms, keep radio and phone charged.",
	},
}

// Topics returns a copy of the preloaded guidance set.
func Topics() []Topic {
	out := make([]Topic, len(topics))
	copy(out, topics)
	return out
}
