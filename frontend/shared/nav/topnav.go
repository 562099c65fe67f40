package nav

// Link is one entry of the top navigation.
type Link struct {
	Label  string
	Href   string
	Active bool
}

// TopNavData is shared with page renderers.
type TopNavData struct {
	Brand string
	Links []Link
}

func BuildTopNavData(activePath string) TopNavData {
	links := []Link{
		{Label: "Proposal", Href: "/sara"},
		{Label: "Tracker", Href: "/tracker"},
	}
	for i := range links {
		links[i].Active = links[i].Href == activePath
	}
	return TopNavData{Brand: "Codvertex", Links: links}
}
