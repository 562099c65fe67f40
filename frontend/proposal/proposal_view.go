package proposal

import (
	"embed"

	"github.com/a-h/templ"

	"proposal/frontend/shared/html"
)

//go:embed proposal.html
var viewFS embed.FS

var proposalTemplate = html.MustPage(viewFS, "proposal.html")

func ProposalPage(data PageData) templ.Component {
	return html.Page(proposalTemplate, data)
}

// BuildPageData marks the open section of the accordion.
func BuildPageData(p *Proposal, a Accordion) PageData {
	sections := make([]SectionView, 0, len(p.Sections))
	for i, s := range p.Sections {
		sections = append(sections, SectionView{
			Index:  i,
			Title:  s.Title,
			Blocks: s.Blocks,
			Open:   a.IsOpen(i),
		})
	}
	return PageData{
		PageData:   html.NewPageData(p.Hero.Title, proposalPath),
		Brand:      p.Brand,
		Client:     p.Client,
		Hero:       p.Hero,
		Sections:   sections,
		Commitment: p.Commitment,
		Footer:     p.Footer,
	}
}
