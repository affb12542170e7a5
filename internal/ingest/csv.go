// Package ingest reads probe locations and sounding data from semicolon
// separated files, checks reading quality and loads them into the store.
package ingest

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lox/cptinterp/internal/models"
)

// ParseResult summarises a parse. Malformed lines are skipped and reported.
type ParseResult struct {
	Total  int
	Failed int
	Errors []string
}

func (r *ParseResult) fail(line int, err error) {
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf("line %d: %v", line, err))
}

// Series is the raw readings of one probe in file order.
type Series struct {
	PointID  string
	Readings []models.RawReading
}

type table struct {
	reader  *csv.Reader
	columns map[string]int
}

func newTable(r io.Reader, required ...string) (*table, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int)
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, req := range required {
		if _, ok := columns[req]; !ok {
			return nil, fmt.Errorf("missing required column %q", req)
		}
	}
	return &table{reader: reader, columns: columns}, nil
}

// line is the file line of the record just read.
func (t *table) line(err error) int {
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return pe.Line
		}
		return 0
	}
	line, _ := t.reader.FieldPos(0)
	return line
}

func (t *table) get(record []string, col string) string {
	if idx, ok := t.columns[col]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

// number parses a decimal that may use a comma separator. Blank cells are null.
func number(s string) (sql.NullFloat64, error) {
	if s == "" {
		return sql.NullFloat64{}, nil
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return sql.NullFloat64{}, fmt.Errorf("invalid number %q", s)
	}
	return sql.NullFloat64{Float64: v, Valid: true}, nil
}

// ParsePoints reads an ID;X;Y;Elevation table. A HoleDepth column is optional.
func ParsePoints(r io.Reader) ([]models.Point, *ParseResult, error) {
	t, err := newTable(r, "id")
	if err != nil {
		return nil, nil, err
	}

	res := &ParseResult{}
	seen := make(map[string]bool)
	var points []models.Point
	for {
		record, err := t.reader.Read()
		if err == io.EOF {
			break
		}
		res.Total++
		line := t.line(err)
		if err != nil {
			res.fail(line, err)
			continue
		}

		p, err := parsePoint(t, record)
		if err != nil {
			res.fail(line, err)
			continue
		}
		if seen[p.PointID] {
			res.fail(line, fmt.Errorf("duplicate point %q", p.PointID))
			continue
		}
		seen[p.PointID] = true
		points = append(points, p)
	}
	return points, res, nil
}

func parsePoint(t *table, record []string) (models.Point, error) {
	p := models.Point{PointID: t.get(record, "id")}
	if p.PointID == "" {
		return p, fmt.Errorf("id is empty")
	}

	var err error
	if p.X, err = number(t.get(record, "x")); err != nil {
		return p, fmt.Errorf("x: %w", err)
	}
	if p.Y, err = number(t.get(record, "y")); err != nil {
		return p, fmt.Errorf("y: %w", err)
	}
	elev := t.get(record, "elevation")
	if elev == "" {
		elev = t.get(record, "z")
	}
	if p.Elevation, err = number(elev); err != nil {
		return p, fmt.Errorf("elevation: %w", err)
	}
	hole, err := number(t.get(record, "holedepth"))
	if err != nil {
		return p, fmt.Errorf("hole depth: %w", err)
	}
	p.HoleDepth = hole.Float64
	return p, nil
}

// ParseReadings reads an ID;Depth;qc;fs;u2 table and groups the rows by probe
// in order of first appearance. A blank u2 cell is a cone without pore
// pressure measurement.
func ParseReadings(r io.Reader) ([]Series, *ParseResult, error) {
	t, err := newTable(r, "id", "depth", "qc", "fs")
	if err != nil {
		return nil, nil, err
	}

	res := &ParseResult{}
	index := make(map[string]int)
	var series []Series
	for {
		record, err := t.reader.Read()
		if err == io.EOF {
			break
		}
		res.Total++
		line := t.line(err)
		if err != nil {
			res.fail(line, err)
			continue
		}

		id := t.get(record, "id")
		if id == "" {
			res.fail(line, fmt.Errorf("id is empty"))
			continue
		}
		reading, err := parseReading(t, record)
		if err != nil {
			res.fail(line, err)
			continue
		}

		i, ok := index[id]
		if !ok {
			i = len(series)
			index[id] = i
			series = append(series, Series{PointID: id})
		}
		series[i].Readings = append(series[i].Readings, reading)
	}
	return series, res, nil
}

func parseReading(t *table, record []string) (models.RawReading, error) {
	var r models.RawReading
	depth, err := number(t.get(record, "depth"))
	if err != nil {
		return r, fmt.Errorf("depth: %w", err)
	}
	if !depth.Valid {
		return r, fmt.Errorf("depth is empty")
	}
	r.Depth = depth.Float64

	if r.QC, err = number(t.get(record, "qc")); err != nil {
		return r, fmt.Errorf("qc: %w", err)
	}
	if r.FS, err = number(t.get(record, "fs")); err != nil {
		return r, fmt.Errorf("fs: %w", err)
	}
	if r.U2, err = number(t.get(record, "u2")); err != nil {
		return r, fmt.Errorf("u2: %w", err)
	}
	return r, nil
}
