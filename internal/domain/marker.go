package domain

// Reload server compatibility constants.
const (
	// ChannelPath is the well-known live channel path on the page's own host.
	ChannelPath = "/live-server-ws"

	// ProbeQuery is the query marker appended to the page path for probe loads.
	ProbeQuery = "reload"

	// MarkerName is the name attribute of the meta tag a healthy probe carries.
	MarkerName = "live-server"

	// MarkerContent is the exact content value of the marker meta tag.
	MarkerContent = "reload"

	// PreserveScrollAttr tags elements whose scroll offsets survive a soft reload.
	PreserveScrollAttr = "data-preserve-scroll"
)
