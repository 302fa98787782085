// Package export writes the HOA directory and its email responses to an
// xlsx workbook.
package export

import (
	"context"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/hoa-onboard/internal/model"
	"github.com/sells-group/hoa-onboard/internal/store"
)

// Sheet names in the exported workbook.
const (
	SheetHOAs      = "HOAs"
	SheetResponses = "Responses"
)

const (
	defaultConcurrency = 4
	maxResponsesPerHOA = 1000
)

var (
	hoaHeader = []string{
		"ID", "Name", "Address", "Contact Email", "Phone", "Management",
		"Total Units", "Monthly Fee Range", "Properties", "Active Properties",
		"Latest Response", "Completeness",
	}
	responseHeader = []string{
		"ID", "HOA", "From", "Subject", "Status", "Category",
		"Completeness", "Received", "Reviewed By", "Generated Sent",
	}
)

// Options configures an export.
type Options struct {
	// Concurrency bounds the per-HOA loads. Zero uses the default.
	Concurrency int
}

// Summary counts exported rows.
type Summary struct {
	HOAs      int
	Responses int
}

type hoaRow struct {
	hoa       model.HOA
	total     int
	active    int
	responses []model.EmailResponse
}

// Write exports every HOA and response in st to w as an xlsx workbook.
func Write(ctx context.Context, st store.Store, w io.Writer, opts Options) (Summary, error) {
	rows, err := load(ctx, st, opts)
	if err != nil {
		return Summary{}, err
	}

	f := xlsx.NewFile()
	hoaSheet, err := f.AddSheet(SheetHOAs)
	if err != nil {
		return Summary{}, eris.Wrap(err, "export: add hoa sheet")
	}
	respSheet, err := f.AddSheet(SheetResponses)
	if err != nil {
		return Summary{}, eris.Wrap(err, "export: add response sheet")
	}
	addHeader(hoaSheet, hoaHeader)
	addHeader(respSheet, responseHeader)

	var sum Summary
	for _, r := range rows {
		writeHOA(hoaSheet.AddRow(), r)
		sum.HOAs++
		for _, resp := range r.responses {
			writeResponse(respSheet.AddRow(), r.hoa.Name, resp)
			sum.Responses++
		}
	}

	if err := f.Write(w); err != nil {
		return sum, eris.Wrap(err, "export: write workbook")
	}
	zap.L().Info("export: wrote workbook",
		zap.Int("hoas", sum.HOAs),
		zap.Int("responses", sum.Responses),
	)
	return sum, nil
}

// load fetches every HOA and, with bounded concurrency, the property counts
// and responses of each. Row order follows the HOA listing.
func load(ctx context.Context, st store.Store, opts Options) ([]hoaRow, error) {
	hoas, err := st.ListHOAs(ctx, store.PageFilter{})
	if err != nil {
		return nil, eris.Wrap(err, "export: list hoas")
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	rows := make([]hoaRow, len(hoas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range hoas {
		rows[i].hoa = hoas[i]
		g.Go(func() error {
			id := hoas[i].ID
			total, err := st.CountProperties(gctx, store.PropertyFilter{HOAID: id})
			if err != nil {
				return eris.Wrapf(err, "export: count properties for hoa %d", id)
			}
			active, err := st.CountProperties(gctx, store.PropertyFilter{HOAID: id, ActiveOnly: true})
			if err != nil {
				return eris.Wrapf(err, "export: count active properties for hoa %d", id)
			}
			responses, err := st.ListEmailResponses(gctx, store.ResponseFilter{HOAID: id, Limit: maxResponsesPerHOA})
			if err != nil {
				return eris.Wrapf(err, "export: list responses for hoa %d", id)
			}
			rows[i].total = total
			rows[i].active = active
			rows[i].responses = responses
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func addHeader(sheet *xlsx.Sheet, header []string) {
	row := sheet.AddRow()
	for _, h := range header {
		row.AddCell().SetString(h)
	}
}

func writeHOA(row *xlsx.Row, r hoaRow) {
	h := r.hoa
	row.AddCell().SetInt64(h.ID)
	row.AddCell().SetString(h.Name)
	row.AddCell().SetString(h.Address)
	row.AddCell().SetString(h.ContactEmail)
	row.AddCell().SetString(h.Phone)
	row.AddCell().SetString(h.ManagementLabel())
	row.AddCell().SetInt(h.TotalUnits)
	row.AddCell().SetString(h.MonthlyFeeRange)
	row.AddCell().SetInt(r.total)
	row.AddCell().SetInt(r.active)

	// Responses are listed newest first.
	if len(r.responses) > 0 {
		latest := r.responses[0]
		row.AddCell().SetString(string(latest.Status))
		row.AddCell().SetInt(latest.CompletenessScore)
	} else {
		row.AddCell().SetString("")
		row.AddCell().SetString("")
	}
}

func writeResponse(row *xlsx.Row, hoaName string, resp model.EmailResponse) {
	row.AddCell().SetInt64(resp.ID)
	row.AddCell().SetString(hoaName)
	row.AddCell().SetString(resp.FromEmail)
	row.AddCell().SetString(resp.Subject)
	row.AddCell().SetString(string(resp.Status))
	category := ""
	if resp.AIAnalysis != nil {
		category = string(resp.AIAnalysis.Category)
	}
	row.AddCell().SetString(category)
	row.AddCell().SetInt(resp.CompletenessScore)
	row.AddCell().SetString(resp.CreatedAt.UTC().Format(time.RFC3339))
	row.AddCell().SetString(resp.ReviewedBy)
	row.AddCell().SetBool(resp.GeneratedResponseSent)
}
