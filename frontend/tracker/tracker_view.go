package tracker

import (
	"embed"

	"github.com/a-h/templ"

	"proposal/frontend/shared/html"
)

//go:embed tracker.html
var viewFS embed.FS

var trackerTemplate = html.MustPage(viewFS, "tracker.html")

// TrackerPage renders the tracker.
func TrackerPage(data PageData) templ.Component {
	return html.Page(trackerTemplate, data)
}

// BuildPageData combines the catalog, the configured payment and the visitor
// state into the tracker view model.
func BuildPageData(checklist *Checklist, payment PaymentState, state State, qrImageURL, status string) PageData {
	data := PageData{
		PageData:   html.NewPageData(checklist.Project.Name, "/tracker"),
		Project:    checklist.Project,
		Payment:    payment,
		Remaining:  payment.Remaining(),
		Progress:   payment.ProgressPercentage(),
		Notes:      state.Notes,
		NotesLimit: MaxNotesLength,
		Status:     status,
		QR: QRModalView{
			Open:     state.QROpen,
			ImageURL: qrImageURL,
			UPIID:    payment.UPIID,
			Amount:   payment.CurrentRequested,
		},
	}
	for _, cp := range checklist.Checkpoints {
		view := CheckpointView{
			Checkpoint:  cp,
			Expanded:    state.IsExpanded(cp.ID),
			StatusLabel: StatusLabel(cp.Status),
			StatusClass: "status-" + cp.Status,
		}
		for si, sub := range cp.SubCheckpoints {
			sv := SubCheckpointView{Index: si, Title: sub.Title}
			for ii, text := range sub.Items {
				key := ItemKey{CheckpointID: cp.ID, SubIndex: si, ItemIndex: ii}
				sv.Items = append(sv.Items, ItemView{Key: key, Text: text, Completed: state.IsItemCompleted(key)})
			}
			view.Subs = append(view.Subs, sv)
		}
		data.Checkpoints = append(data.Checkpoints, view)
	}
	return data
}

// BuildSummary is the JSON view of the tracker.
func BuildSummary(checklist *Checklist, payment PaymentState, state State) Summary {
	return Summary{
		TotalAmount:       payment.TotalAmount,
		PaidAmount:        payment.PaidAmount,
		RemainingAmount:   payment.Remaining(),
		CurrentRequested:  payment.CurrentRequested,
		CurrentCheckpoint: payment.CurrentCheckpoint,
		ProgressPercent:   payment.ProgressPercentage(),
		CompletedItems:    len(state.Completed),
		TotalItems:        checklist.ItemCount(),
		ExpandedIDs:       state.ExpandedIDs(),
	}
}
