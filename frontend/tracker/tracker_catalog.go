package tracker

import (
	"embed"
	"fmt"
	"strings"

	"proposal/infrastructure/content"
)

//go:embed checklist.yaml
var checklistFS embed.FS

// LoadChecklist reads the catalog from path, or the embedded one when path is
// empty, and validates it.
func LoadChecklist(path string) (*Checklist, error) {
	var c Checklist
	if err := content.LoadYAML(path, checklistFS, "checklist.yaml", &c); err != nil {
		return nil, fmt.Errorf("load checklist: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid checklist: %w", err)
	}
	return &c, nil
}

// MustLoadEmbeddedChecklist panics on an invalid embedded catalog; tests and
// tools use it.
func MustLoadEmbeddedChecklist() *Checklist {
	c, err := LoadChecklist("")
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Checklist) validate() error {
	if len(c.Checkpoints) == 0 {
		return fmt.Errorf("no checkpoints")
	}
	seen := make(map[int]struct{}, len(c.Checkpoints))
	for i, cp := range c.Checkpoints {
		if cp.ID <= 0 {
			return fmt.Errorf("checkpoint #%d: id must be positive", i+1)
		}
		if _, dup := seen[cp.ID]; dup {
			return fmt.Errorf("checkpoint %d: duplicate id", cp.ID)
		}
		seen[cp.ID] = struct{}{}
		if strings.TrimSpace(cp.Title) == "" {
			return fmt.Errorf("checkpoint %d: title is required", cp.ID)
		}
		if cp.Payment < 0 {
			return fmt.Errorf("checkpoint %d: payment must not be negative", cp.ID)
		}
		switch cp.Status {
		case StatusPending, StatusInProgress, StatusCompleted:
		default:
			return fmt.Errorf("checkpoint %d: unknown status %q", cp.ID, cp.Status)
		}
		for j, sub := range cp.SubCheckpoints {
			if strings.TrimSpace(sub.Title) == "" {
				return fmt.Errorf("checkpoint %d sub-checkpoint %d: title is required", cp.ID, j)
			}
		}
	}
	return nil
}

// Checkpoint returns the checkpoint with id.
func (c *Checklist) Checkpoint(id int) (Checkpoint, bool) {
	for _, cp := range c.Checkpoints {
		if cp.ID == id {
			return cp, true
		}
	}
	return Checkpoint{}, false
}

func (c *Checklist) HasCheckpoint(id int) bool {
	_, ok := c.Checkpoint(id)
	return ok
}

// HasItem reports whether key addresses an existing leaf item.
func (c *Checklist) HasItem(key ItemKey) bool {
	cp, ok := c.Checkpoint(key.CheckpointID)
	if !ok {
		return false
	}
	if key.SubIndex < 0 || key.SubIndex >= len(cp.SubCheckpoints) {
		return false
	}
	items := cp.SubCheckpoints[key.SubIndex].Items
	return key.ItemIndex >= 0 && key.ItemIndex < len(items)
}

// ItemText returns the text of the item at key.
func (c *Checklist) ItemText(key ItemKey) (string, bool) {
	if !c.HasItem(key) {
		return "", false
	}
	cp, _ := c.Checkpoint(key.CheckpointID)
	return cp.SubCheckpoints[key.SubIndex].Items[key.ItemIndex], true
}

// ItemCount is the number of leaf items in the catalog.
func (c *Checklist) ItemCount() int {
	n := 0
	for _, cp := range c.Checkpoints {
		for _, sub := range cp.SubCheckpoints {
			n += len(sub.Items)
		}
	}
	return n
}

// TotalPayment sums the payments of all checkpoints.
func (c *Checklist) TotalPayment() int64 {
	var total int64
	for _, cp := range c.Checkpoints {
		total += cp.Payment
	}
	return total
}

// StatusLabel renders a status the way the tracker badge shows it.
func StatusLabel(status string) string {
	return strings.ToUpper(strings.Replace(status, "_", " ", 1))
}
