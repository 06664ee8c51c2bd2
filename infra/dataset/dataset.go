// Package dataset loads the four CSV tables of a simulation: tickets,
// technicians (FME), control centers (CM) and sites.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/kilianp07/fieldsim/core/model"
)

const (
	EncodingLatin1 = "latin1"
	EncodingUTF8   = "utf-8"
)

// Config defines the data section of the configuration file.
type Config struct {
	Tickets     string `json:"tickets"`
	Technicians string `json:"technicians"`
	Centers     string `json:"centers"`
	Sites       string `json:"sites"`
	Encoding    string `json:"encoding"`
	Delimiter   string `json:"delimiter"`
	// DayFirst reads ambiguous slash dates as dd/mm/yyyy.
	DayFirst    bool   `json:"day_first"`
}

// SetDefaults uses the historical file names and Latin-1.
func (c *Config) SetDefaults() {
	if c.Tickets == "" {
		c.Tickets = "Tickets.csv"
	}
	if c.Technicians == "" {
		c.Technicians = "FME.csv"
	}
	if c.Centers == "" {
		c.Centers = "CM.csv"
	}
	if c.Sites == "" {
		c.Sites = "Site.csv"
	}
	if c.Encoding == "" {
		c.Encoding = EncodingLatin1
	}
	if c.Delimiter == "" {
		c.Delimiter = ","
	}
}

// Validate checks the encoding and delimiter.
func (c Config) Validate() error {
	switch strings.ToLower(c.Encoding) {
	case "", EncodingLatin1, "iso-8859-1", EncodingUTF8, "utf8":
	default:
		return fmt.Errorf("data: unsupported encoding %q", c.Encoding)
	}
	if len([]rune(c.Delimiter)) > 1 {
		return fmt.Errorf("data: delimiter must be a single character, got %q", c.Delimiter)
	}
	return nil
}

// Reader decodes CSV tables with a fixed encoding and delimiter.
type Reader struct {
	encoding  string
	delimiter rune
	parseTime func(string) (time.Time, error)
}

func NewReader(cfg Config) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Reader{encoding: strings.ToLower(cfg.Encoding), delimiter: ',', parseTime: model.ParseTime}
	if cfg.DayFirst {
		r.parseTime = model.ParseTimeDayFirst
	}
	if cfg.Delimiter != "" {
		r.delimiter = []rune(cfg.Delimiter)[0]
	}
	return r, nil
}

// Load reads the four files named in cfg and builds the dataset.
func Load(cfg Config) (*model.Dataset, error) {
	cfg.SetDefaults()
	r, err := NewReader(cfg)
	if err != nil {
		return nil, err
	}
	var (
		tickets []model.Ticket
		techs   []model.Technician
		centers []model.ControlCenter
		sites   []model.Site
	)
	steps := []struct {
		path string
		read func(io.Reader) error
	}{
		{cfg.Tickets, func(f io.Reader) (err error) { tickets, err = r.Tickets(f); return }},
		{cfg.Technicians, func(f io.Reader) (err error) { techs, err = r.Technicians(f); return }},
		{cfg.Centers, func(f io.Reader) (err error) { centers, err = r.Centers(f); return }},
		{cfg.Sites, func(f io.Reader) (err error) { sites, err = r.Sites(f); return }},
	}
	for _, s := range steps {
		if err := readFile(s.path, s.read); err != nil {
			return nil, err
		}
	}
	return model.NewDataset(tickets, techs, centers, sites), nil
}

func readFile(path string, read func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := read(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Tickets reads a table with DATA/TIME and SITE columns.
func (r *Reader) Tickets(in io.Reader) ([]model.Ticket, error) {
	t, err := r.table(in, "DATA/TIME", "SITE")
	if err != nil {
		return nil, err
	}
	out := make([]model.Ticket, 0, len(t.rows))
	for i, row := range t.rows {
		ts, err := r.parseTime(t.get(row, "DATA/TIME"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, model.Ticket{Index: i, Site: model.NormalizeID(t.get(row, "SITE")), Scheduled: ts})
	}
	return out, nil
}

// Technicians reads a table with FME and CM columns.
func (r *Reader) Technicians(in io.Reader) ([]model.Technician, error) {
	t, err := r.table(in, "FME", "CM")
	if err != nil {
		return nil, err
	}
	out := make([]model.Technician, 0, len(t.rows))
	for _, row := range t.rows {
		id := model.NormalizeID(t.get(row, "FME"))
		if id == "" {
			continue
		}
		out = append(out, model.Technician{ID: id, Center: model.NormalizeID(t.get(row, "CM"))})
	}
	return out, nil
}

// Centers reads a table with CM, LAT and LON columns. Empty coordinates mark
// the center location as absent.
func (r *Reader) Centers(in io.Reader) ([]model.ControlCenter, error) {
	t, err := r.table(in, "CM", "LAT", "LON")
	if err != nil {
		return nil, err
	}
	out := make([]model.ControlCenter, 0, len(t.rows))
	for i, row := range t.rows {
		c := model.ControlCenter{ID: model.NormalizeID(t.get(row, "CM"))}
		lat, lon := t.get(row, "LAT"), t.get(row, "LON")
		if lat != "" && lon != "" {
			loc, err := parseCoordinate(lat, lon)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+2, err)
			}
			c.Location = &loc
		}
		out = append(out, c)
	}
	return out, nil
}

// Sites reads a table with SITE, LAT, LON and CM columns.
func (r *Reader) Sites(in io.Reader) ([]model.Site, error) {
	t, err := r.table(in, "SITE", "LAT", "LON", "CM")
	if err != nil {
		return nil, err
	}
	out := make([]model.Site, 0, len(t.rows))
	for i, row := range t.rows {
		loc, err := parseCoordinate(t.get(row, "LAT"), t.get(row, "LON"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, model.Site{
			ID:       model.NormalizeID(t.get(row, "SITE")),
			Location: loc,
			Center:   model.NormalizeID(t.get(row, "CM")),
		})
	}
	return out, nil
}

type table struct {
	cols map[string]int
	rows [][]string
}

func (t table) get(row []string, col string) string {
	i := t.cols[col]
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// table decodes in and checks that the required columns are present. Header
// names are matched case-insensitively.
func (r *Reader) table(in io.Reader, required ...string) (table, error) {
	cr := csv.NewReader(r.decode(in))
	cr.Comma = r.delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return table{}, errors.New("empty file")
	}
	if err != nil {
		return table{}, err
	}
	t := table{cols: make(map[string]int, len(header))}
	for i, h := range header {
		name := strings.ToUpper(strings.TrimSpace(h))
		if _, dup := t.cols[name]; !dup {
			t.cols[name] = i
		}
	}
	for _, col := range required {
		if _, ok := t.cols[col]; !ok {
			return table{}, fmt.Errorf("missing column %s", col)
		}
	}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return table{}, err
		}
		if blank(row) {
			continue
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func (r *Reader) decode(in io.Reader) io.Reader {
	switch r.encoding {
	case EncodingUTF8, "utf8":
		return transform.NewReader(in, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	default:
		return charmap.ISO8859_1.NewDecoder().Reader(in)
	}
}

func blank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseCoordinate(lat, lon string) (model.Coordinate, error) {
	la, err := parseDecimal(lat)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("latitude: %w", err)
	}
	lo, err := parseDecimal(lon)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("longitude: %w", err)
	}
	return model.Coordinate{Lat: la, Lon: lo}, nil
}

// parseDecimal accepts both "." and "," as decimal separator.
func parseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}
