// Package report renders valuation results as JSON, CSV or an aligned text
// table. Numbers are rounded half away from zero to a fixed precision.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contactkeval/bsm-kernel/internal/config"
	"github.com/contactkeval/bsm-kernel/internal/pricing"
)

// Entry is one valued contract together with the identifiers it was
// requested under.
type Entry struct {
	ID     string
	Ticker string
	Result pricing.Result
}

// Row is the flat, rounded form of an Entry. Numbers are kept as
// json.Number so that JSON output carries them unquoted and exactly as
// rounded.
type Row struct {
	ID            string      `json:"id"`
	Ticker        string      `json:"ticker,omitempty"`
	Spot          json.Number `json:"spot"`
	Strike        json.Number `json:"strike"`
	ValuationDate string      `json:"valuation_date,omitempty"`
	ExpiryDate    string      `json:"expiry_date,omitempty"`
	Tau           json.Number `json:"tau"`
	Rate          json.Number `json:"rate"`
	DividendYield json.Number `json:"dividend_yield"`
	VolPut        json.Number `json:"vol_put"`
	VolCall       json.Number `json:"vol_call"`
	Expired       bool        `json:"expired"`

	D1Put     json.Number `json:"d1_put"`
	D2Put     json.Number `json:"d2_put"`
	D1Call    json.Number `json:"d1_call"`
	D2Call    json.Number `json:"d2_call"`
	PutPrice  json.Number `json:"put_price"`
	CallPrice json.Number `json:"call_price"`

	DeltaPut       json.Number `json:"delta_put"`
	DeltaCall      json.Number `json:"delta_call"`
	ThetaPut       json.Number `json:"theta_put"`
	ThetaCall      json.Number `json:"theta_call"`
	ThetaPutDaily  json.Number `json:"theta_put_daily"`
	ThetaCallDaily json.Number `json:"theta_call_daily"`
	GammaPut       json.Number `json:"gamma_put"`
	GammaCall      json.Number `json:"gamma_call"`
	VegaPut        json.Number `json:"vega_put"`
	VegaCall       json.Number `json:"vega_call"`
	RhoPut         json.Number `json:"rho_put"`
	RhoCall        json.Number `json:"rho_call"`
}

var headers = []string{
	"id", "ticker", "spot", "strike", "valuation_date", "expiry_date", "tau", "rate", "dividend_yield",
	"vol_put", "vol_call", "expired", "d1_put", "d2_put", "d1_call", "d2_call", "put_price", "call_price",
	"delta_put", "delta_call", "theta_put", "theta_call", "theta_put_daily", "theta_call_daily",
	"gamma_put", "gamma_call", "vega_put", "vega_call", "rho_put", "rho_call",
}

func (r Row) record() []string {
	return []string{
		r.ID, r.Ticker, r.Spot.String(), r.Strike.String(), r.ValuationDate, r.ExpiryDate, r.Tau.String(),
		r.Rate.String(), r.DividendYield.String(), r.VolPut.String(), r.VolCall.String(), strconv.FormatBool(r.Expired),
		r.D1Put.String(), r.D2Put.String(), r.D1Call.String(), r.D2Call.String(), r.PutPrice.String(), r.CallPrice.String(),
		r.DeltaPut.String(), r.DeltaCall.String(), r.ThetaPut.String(), r.ThetaCall.String(),
		r.ThetaPutDaily.String(), r.ThetaCallDaily.String(), r.GammaPut.String(), r.GammaCall.String(),
		r.VegaPut.String(), r.VegaCall.String(), r.RhoPut.String(), r.RhoCall.String(),
	}
}

// BuildRows flattens entries into rows rounded to precision decimal places.
// Greeks use the presentation scaling of pricing.Greeks.Table.
func BuildRows(entries []Entry, precision int32) []Row {
	num := func(v float64) json.Number {
		return json.Number(decimal.NewFromFloat(v).StringFixed(precision))
	}

	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		c := e.Result.Contract
		v := e.Result.Valuation
		g := e.Result.Greeks.Table()
		rows = append(rows, Row{
			ID:            e.ID,
			Ticker:        e.Ticker,
			Spot:          num(c.Spot()),
			Strike:        num(c.Strike()),
			ValuationDate: formatDate(c.ValuationDate()),
			ExpiryDate:    formatDate(c.ExpiryDate()),
			Tau:           num(c.Tau()),
			Rate:          num(c.Rate()),
			DividendYield: num(c.DividendYield()),
			VolPut:        num(c.Vol(pricing.Put)),
			VolCall:       num(c.Vol(pricing.Call)),
			Expired:       v.Expired,

			D1Put:     num(v.D1.Put),
			D2Put:     num(v.D2.Put),
			D1Call:    num(v.D1.Call),
			D2Call:    num(v.D2.Call),
			PutPrice:  num(v.PutPrice()),
			CallPrice: num(v.CallPrice()),

			DeltaPut:       num(g.DeltaPut),
			DeltaCall:      num(g.DeltaCall),
			ThetaPut:       num(g.ThetaPut),
			ThetaCall:      num(g.ThetaCall),
			ThetaPutDaily:  num(g.ThetaPutDaily),
			ThetaCallDaily: num(g.ThetaCallDaily),
			GammaPut:       num(g.GammaPut),
			GammaCall:      num(g.GammaCall),
			VegaPut:        num(g.VegaPut),
			VegaCall:       num(g.VegaCall),
			RhoPut:         num(g.RhoPut),
			RhoCall:        num(g.RhoCall),
		})
	}
	return rows
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

// Write renders rows to w in the given format.
func Write(w io.Writer, format string, rows []Row) error {
	switch format {
	case config.FormatJSON:
		return WriteJSON(w, rows)
	case config.FormatCSV:
		return WriteCSV(w, rows)
	case config.FormatTable, "":
		return WriteTable(w, rows)
	}
	return fmt.Errorf("unknown report format %q", format)
}

func WriteJSON(w io.Writer, rows []Row) error {
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable prints one block per row with the put and call legs side by
// side.
func WriteTable(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for i, r := range rows {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintln(tw, title(r))
		fmt.Fprintf(tw, "\tput\tcall\t\n")
		for _, line := range [][3]string{
			{"d1", r.D1Put.String(), r.D1Call.String()},
			{"d2", r.D2Put.String(), r.D2Call.String()},
			{"price", r.PutPrice.String(), r.CallPrice.String()},
			{"delta", r.DeltaPut.String(), r.DeltaCall.String()},
			{"gamma", r.GammaPut.String(), r.GammaCall.String()},
			{"theta", r.ThetaPut.String(), r.ThetaCall.String()},
			{"theta/day", r.ThetaPutDaily.String(), r.ThetaCallDaily.String()},
			{"vega 1%", r.VegaPut.String(), r.VegaCall.String()},
			{"rho 1%", r.RhoPut.String(), r.RhoCall.String()},
		} {
			fmt.Fprintf(tw, "%s\t%s\t%s\t\n", line[0], line[1], line[2])
		}
	}
	return tw.Flush()
}

func title(r Row) string {
	name := r.ID
	if r.Ticker != "" {
		name += " " + r.Ticker
	}
	s := fmt.Sprintf("%s S=%s K=%s tau=%s", name, r.Spot, r.Strike, r.Tau)
	if r.Expired {
		s += " expired"
	}
	return s
}

// WriteFiles writes results.json and results.csv into outdir, creating it
// if needed.
func WriteFiles(outdir string, rows []Row) error {
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for name, write := range map[string]func(io.Writer, []Row) error{
		"results.json": WriteJSON,
		"results.csv":  WriteCSV,
	} {
		if err := writeFile(filepath.Join(outdir, name), rows, write); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, rows []Row, write func(io.Writer, []Row) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
