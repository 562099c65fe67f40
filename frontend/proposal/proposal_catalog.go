package proposal

import (
	"embed"
	"fmt"
	"strings"

	"proposal/infrastructure/content"
)

//go:embed proposal.yaml
var proposalFS embed.FS

// LoadProposal reads the proposal from path, or the embedded one when path is
// empty.
func LoadProposal(path string) (*Proposal, error) {
	var p Proposal
	if err := content.LoadYAML(path, proposalFS, "proposal.yaml", &p); err != nil {
		return nil, fmt.Errorf("load proposal: %w", err)
	}
	if len(p.Sections) == 0 {
		return nil, fmt.Errorf("invalid proposal: no sections")
	}
	for i, s := range p.Sections {
		if strings.TrimSpace(s.Title) == "" {
			return nil, fmt.Errorf("invalid proposal: section %d has no title", i)
		}
	}
	return &p, nil
}

func MustLoadEmbeddedProposal() *Proposal {
	p, err := LoadProposal("")
	if err != nil {
		panic(err)
	}
	return p
}

// HasSection reports whether index addresses a section.
func (p *Proposal) HasSection(index int) bool {
	return index >= 0 && index < len(p.Sections)
}
