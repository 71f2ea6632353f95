package data

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/contactkeval/bsm-kernel/internal/logger"
	"github.com/contactkeval/bsm-kernel/internal/pricing"
)

// Batch file columns. rate, dividend_yield and ticker are optional; blank
// rate and dividend_yield cells take the supplier defaults. On rows with a
// ticker, spot, vol_put and vol_call may be left blank to be filled from the
// secondary supplier.
const (
	colID            = "id"
	colTicker        = "ticker"
	colSpot          = "spot"
	colStrike        = "strike"
	colValuationDate = "valuation_date"
	colExpiryDate    = "expiry_date"
	colRate          = "rate"
	colVolPut        = "vol_put"
	colVolCall       = "vol_call"
	colDividendYield = "dividend_yield"
)

var requiredColumns = []string{colID, colSpot, colStrike, colValuationDate, colExpiryDate, colVolPut, colVolCall}

// CSVSupplier serves inputs read from a batch file, keyed by id.
type CSVSupplier struct {
	rows      []Inputs
	byID      map[string]int
	secondary Supplier
}

// NewCSVSupplier reads the batch file at path. Requests for ids not in the
// file go to secondary when it is non-nil.
func NewCSVSupplier(path string, defaults Defaults, secondary Supplier) (*CSVSupplier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()

	rows, err := ReadInputsCSV(f, defaults)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debugf("loaded %d rows from %s", len(rows), path)

	s := &CSVSupplier{rows: rows, byID: make(map[string]int, len(rows)), secondary: secondary}
	for i, r := range rows {
		s.byID[r.ID] = i
	}
	return s, nil
}

func (s *CSVSupplier) Secondary() Supplier {
	return s.secondary
}

// Rows returns every row in file order.
func (s *CSVSupplier) Rows() []Inputs {
	return append([]Inputs(nil), s.rows...)
}

// Inputs returns the row for req.ID. Rows with blank market cells are
// completed from the secondary supplier; cells present in the file win.
// Ids not in the file go to the secondary as they are.
func (s *CSVSupplier) Inputs(ctx context.Context, req Request) (Inputs, error) {
	i, ok := s.byID[req.ID]
	if !ok {
		if s.secondary != nil {
			logger.Tracef("id %q not in batch file, asking secondary", req.ID)
			return s.secondary.Inputs(ctx, req)
		}
		return Inputs{}, fmt.Errorf("id %q: %w", req.ID, ErrNotFound)
	}

	row := s.rows[i]
	missing := row.missingMarket()
	if len(missing) == 0 {
		return row, nil
	}
	if s.secondary == nil {
		return Inputs{}, fmt.Errorf("id %q: %s missing and no market supplier: %w",
			row.ID, strings.Join(missing, ", "), ErrNotFound)
	}

	logger.Debugf("id %q: filling %s from %s market data", row.ID, strings.Join(missing, ", "), row.Ticker)
	in, err := s.secondary.Inputs(ctx, Request{
		ID:        row.ID,
		Ticker:    row.Ticker,
		Strike:    row.Strike,
		Valuation: row.Valuation,
		Expiry:    row.Expiry,
	})
	if err != nil {
		return Inputs{}, fmt.Errorf("id %q: %w", row.ID, err)
	}
	return mergeRow(row, in), nil
}

// missingMarket names the market cells left blank on a ticker row.
func (in Inputs) missingMarket() []string {
	if in.Ticker == "" {
		return nil
	}
	var missing []string
	if in.Spot == 0 {
		missing = append(missing, colSpot)
	}
	if in.Vols.Put == 0 {
		missing = append(missing, colVolPut)
	}
	if in.Vols.Call == 0 {
		missing = append(missing, colVolCall)
	}
	return missing
}

// mergeRow overlays the file's values on market inputs.
func mergeRow(row, market Inputs) Inputs {
	out := row
	if out.Spot == 0 {
		out.Spot = market.Spot
	}
	if out.Vols.Put == 0 {
		out.Vols.Put = market.Vols.Put
	}
	if out.Vols.Call == 0 {
		out.Vols.Call = market.Vols.Call
	}
	if !market.Expiry.IsZero() {
		out.Expiry = market.Expiry
	}
	return out
}

// ReadInputsCSV parses a batch file. The first record is a header naming the
// columns; column order is free and names are case-insensitive.
func ReadInputsCSV(r io.Reader, defaults Defaults) ([]Inputs, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty batch file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var out []Inputs
	seen := make(map[string]bool)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)

		in, err := parseRow(rec, cols, defaults)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if in.ID == "" {
			return nil, fmt.Errorf("line %d: empty id", line)
		}
		if seen[in.ID] {
			return nil, fmt.Errorf("line %d: duplicate id %q", line, in.ID)
		}
		seen[in.ID] = true
		out = append(out, in)
	}
	return out, nil
}

func parseRow(rec []string, cols map[string]int, defaults Defaults) (Inputs, error) {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	num := func(name string, def *float64) (float64, error) {
		s := cell(name)
		if s == "" && def != nil {
			return *def, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%s %q: %w", name, s, err)
		}
		return v, nil
	}
	date := func(name string) (time.Time, error) {
		d, err := time.Parse(time.DateOnly, cell(name))
		if err != nil {
			return time.Time{}, fmt.Errorf("%s: %w", name, err)
		}
		return d, nil
	}

	var (
		in  = Inputs{ID: cell(colID), Ticker: cell(colTicker)}
		err error
	)
	// left at zero for the market supplier to fill
	var market *float64
	if in.Ticker != "" {
		market = new(float64)
	}
	if in.Spot, err = num(colSpot, market); err != nil {
		return Inputs{}, err
	}
	if in.Strike, err = num(colStrike, nil); err != nil {
		return Inputs{}, err
	}
	if in.Valuation, err = date(colValuationDate); err != nil {
		return Inputs{}, err
	}
	if in.Expiry, err = date(colExpiryDate); err != nil {
		return Inputs{}, err
	}
	if in.Rate, err = num(colRate, &defaults.Rate); err != nil {
		return Inputs{}, err
	}
	if in.DividendYield, err = num(colDividendYield, &defaults.DividendYield); err != nil {
		return Inputs{}, err
	}
	var vols pricing.LegPair[float64]
	if vols.Put, err = num(colVolPut, market); err != nil {
		return Inputs{}, err
	}
	if vols.Call, err = num(colVolCall, market); err != nil {
		return Inputs{}, err
	}
	in.Vols = vols
	return in, nil
}
