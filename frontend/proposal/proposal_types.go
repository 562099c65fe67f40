package proposal

import "proposal/frontend/shared/html"

// Proposal is the static proposal document.
type Proposal struct {
	Brand      string     `yaml:"brand"`
	Client     string     `yaml:"client"`
	Hero       Hero       `yaml:"hero"`
	Sections   []Section  `yaml:"sections"`
	Commitment Commitment `yaml:"commitment"`
	Footer     string     `yaml:"footer"`
}

type Hero struct {
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
}

// Section is one accordion entry.
type Section struct {
	Title  string  `yaml:"title"`
	Blocks []Block `yaml:"blocks"`
}

// Block is a heading with an optional paragraph and bullet list.
type Block struct {
	Heading string   `yaml:"heading"`
	Text    string   `yaml:"text"`
	Items   []string `yaml:"items"`
}

type Commitment struct {
	Title        string        `yaml:"title"`
	Intro        string        `yaml:"intro"`
	Deliverables []Deliverable `yaml:"deliverables"`
	Investment   Investment    `yaml:"investment"`
}

type Deliverable struct {
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

type Investment struct {
	Title      string   `yaml:"title"`
	Paragraphs []string `yaml:"paragraphs"`
}

// PageData is the view model of the proposal page.
type PageData struct {
	html.PageData
	Brand      string
	Client     string
	Hero       Hero
	Sections   []SectionView
	Commitment Commitment
	Footer     string
}

type SectionView struct {
	Index  int
	Title  string
	Blocks []Block
	Open   bool
}
