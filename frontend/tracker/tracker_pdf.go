package tracker

import (
	"bytes"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jung-kurt/gofpdf"
)

// RenderReportPDF writes the payment summary and the checklist with the
// visitor's completion marks. Core PDF fonts have no rupee glyph, so amounts
// are printed as "Rs.".
func RenderReportPDF(checklist *Checklist, payment PaymentState, state State, printedAt time.Time) ([]byte, error) {
	if checklist == nil || len(checklist.Checkpoints) == 0 {
		return nil, fmt.Errorf("no checkpoints to render")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(checklist.Project.Name, false)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, tr(checklist.Project.Name), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr(checklist.Project.Subtitle), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Printed: "+printedAt.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Payment Summary", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	rows := [][2]string{
		{"Total Project Amount", rs(payment.TotalAmount)},
		{"Amount Paid", rs(payment.PaidAmount)},
		{"Remaining", rs(payment.Remaining())},
		{"Current Payment", rs(payment.CurrentRequested)},
		{"Payment Progress", fmt.Sprintf("%.1f%%", payment.ProgressPercentage())},
		{"Current Checkpoint", fmt.Sprintf("Checkpoint %d", payment.CurrentCheckpoint)},
		{"Checklist", fmt.Sprintf("%d of %d items completed", len(state.Completed), checklist.ItemCount())},
	}
	for _, row := range rows {
		pdf.CellFormat(70, 7, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 7, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	for _, cp := range checklist.Checkpoints {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.MultiCell(0, 7, tr(fmt.Sprintf("%d. %s", cp.ID, cp.Title)), "", "L", false)
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s | %s | %s", cp.Duration, rs(cp.Payment), StatusLabel(cp.Status))), "", 1, "L", false, 0, "")

		for si, sub := range cp.SubCheckpoints {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.MultiCell(0, 6, tr(sub.Title), "", "L", false)
			pdf.SetFont("Helvetica", "", 10)
			for ii, item := range sub.Items {
				mark := "[ ]"
				if state.IsItemCompleted(ItemKey{CheckpointID: cp.ID, SubIndex: si, ItemIndex: ii}) {
					mark = "[x]"
				}
				pdf.SetX(20)
				pdf.MultiCell(0, 5, tr(mark+" "+item), "", "L", false)
			}
		}
		pdf.Ln(3)
	}

	if state.Notes != "" {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "Developer Notes", "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(state.Notes), "", "L", false)
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func rs(amount int64) string {
	return "Rs. " + humanize.Comma(amount)
}
