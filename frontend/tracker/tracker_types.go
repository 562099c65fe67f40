package tracker

import (
	"proposal/frontend/shared/html"
	"proposal/infrastructure/config"
)

// Checkpoint status labels.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Checklist is the static catalog of checkpoints. It is loaded once and never
// mutated afterwards.
type Checklist struct {
	Project     ProjectInfo  `yaml:"project"`
	Checkpoints []Checkpoint `yaml:"checkpoints"`
}

type ProjectInfo struct {
	Name            string `yaml:"name"`
	Subtitle        string `yaml:"subtitle"`
	TotalDuration   string `yaml:"total_duration"`
	TechnologyStack string `yaml:"technology_stack"`
}

type Checkpoint struct {
	ID             int             `yaml:"id"`
	Title          string          `yaml:"title"`
	Payment        int64           `yaml:"payment"`
	Duration       string          `yaml:"duration"`
	Status         string          `yaml:"status"`
	Deliverables   []string        `yaml:"deliverables"`
	SubCheckpoints []SubCheckpoint `yaml:"sub_checkpoints"`
}

type SubCheckpoint struct {
	Title string   `yaml:"title"`
	Items []string `yaml:"items"`
}

// ItemKey addresses one checklist leaf.
type ItemKey struct {
	CheckpointID int `json:"checkpoint_id"`
	SubIndex     int `json:"sub_index"`
	ItemIndex    int `json:"item_index"`
}

// PaymentState is configured at startup; the tracker only reads it.
type PaymentState struct {
	TotalAmount       int64
	PaidAmount        int64
	CurrentRequested  int64
	CurrentCheckpoint int
	UPIID             string
	PayeeName         string
}

// PaymentFromConfig copies the configured amounts and payee.
func PaymentFromConfig(cfg config.Config) PaymentState {
	return PaymentState{
		TotalAmount:       cfg.TotalAmount,
		PaidAmount:        cfg.PaidAmount,
		CurrentRequested:  cfg.RequestedAmount,
		CurrentCheckpoint: cfg.CurrentCheckpoint,
		UPIID:             cfg.UPIID,
		PayeeName:         cfg.PayeeName,
	}
}

// Remaining may be negative when more than the total was paid.
func (p PaymentState) Remaining() int64 {
	return Remaining(p.TotalAmount, p.PaidAmount)
}

func (p PaymentState) ProgressPercentage() float64 {
	return ProgressPercentage(p.TotalAmount, p.PaidAmount)
}

// PageData is the view model of the tracker page.
type PageData struct {
	html.PageData
	Project     ProjectInfo
	Payment     PaymentState
	Remaining   int64
	Progress    float64
	Checkpoints []CheckpointView
	Notes       string
	NotesLimit  int
	Status      string
	QR          QRModalView
}

type CheckpointView struct {
	Checkpoint
	Expanded    bool
	StatusLabel string
	StatusClass string
	Subs        []SubCheckpointView
}

type SubCheckpointView struct {
	Index int
	Title string
	Items []ItemView
}

type ItemView struct {
	Key       ItemKey
	Text      string
	Completed bool
}

type QRModalView struct {
	Open     bool
	ImageURL string
	UPIID    string
	Amount   int64
}

// Summary is the JSON shape of the tracker API.
type Summary struct {
	TotalAmount       int64   `json:"total_amount"`
	PaidAmount        int64   `json:"paid_amount"`
	RemainingAmount   int64   `json:"remaining_amount"`
	CurrentRequested  int64   `json:"current_requested"`
	CurrentCheckpoint int     `json:"current_checkpoint"`
	ProgressPercent   float64 `json:"progress_percent"`
	CompletedItems    int     `json:"completed_items"`
	TotalItems        int     `json:"total_items"`
	ExpandedIDs       []int   `json:"expanded_checkpoints"`
}
