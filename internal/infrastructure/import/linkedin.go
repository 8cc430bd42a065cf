package csvimport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"github.com/investorcrm/backend/internal/domain/network"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LinkedIn "Connections.csv" columns
const (
	ColFirstName   = "First Name"
	ColLastName    = "Last Name"
	ColURL         = "URL"
	ColEmail       = "Email Address"
	ColCompany     = "Company"
	ColPosition    = "Position"
	ColConnectedOn = "Connected On"
)

// connectedOnLayouts covers the formats LinkedIn has used over time
var connectedOnLayouts = []string{
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"1/2/06",
	"1/2/2006",
}

var titleCaser = cases.Title(language.Und)

// Connection is one valid row of a connections export
type Connection struct {
	Line int
	network.ConnectionData
}

// ConnectionsResult is the outcome of parsing a connections export
type ConnectionsResult struct {
	Connections []Connection
	TotalRows   int
	Errors      []RowError
	TotalErrors int
	Truncated   bool
}

// ConnectionsOptions bounds a parse
type ConnectionsOptions struct {
	MaxRows   int
	MaxErrors int
}

// ParseConnections reads a LinkedIn connections export. Invalid rows are reported and skipped;
// file-level problems (encoding, missing header or columns, too many rows) fail the whole parse.
func ParseConnections(r io.Reader, opts ConnectionsOptions) (*ConnectionsResult, error) {
	if opts.MaxRows <= 0 {
		opts.MaxRows = 50_000
	}
	parser, err := NewCSVParser(r, WithHeaderMarker(ColFirstName))
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	if missing := parser.MissingHeaders([]string{ColFirstName, ColLastName}); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	errs := NewErrorCollection(opts.MaxErrors)
	validator := NewFieldValidator([]FieldRule{
		Field(ColFirstName).MaxLength(100).Build(),
		Field(ColLastName).MaxLength(100).Build(),
		Field(ColEmail).Email().MaxLength(254).Build(),
		Field(ColCompany).MaxLength(200).Build(),
		Field(ColPosition).MaxLength(200).Build(),
		Field(ColURL).MaxLength(500).Custom(validateProfileURL).Build(),
		Field(ColConnectedOn).Custom(func(v string) error {
			_, err := parseConnectedOn(v)
			return err
		}).Build(),
	}, errs)

	result := &ConnectionsResult{}
	seen := make(map[string]int)
	for {
		row, err := parser.ReadRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var rowErr RowError
			if errors.As(err, &rowErr) {
				errs.Add(rowErr)
				continue
			}
			return nil, err
		}
		if row.IsEmpty() {
			continue
		}
		if parser.TotalRows() > opts.MaxRows {
			return nil, fmt.Errorf("%w (%d)", ErrTooManyRows, opts.MaxRows)
		}

		if row.Get(ColFirstName) == "" && row.Get(ColLastName) == "" {
			errs.Add(NewRowError(row.LineNumber, ColFirstName, ErrCodeImportRequiredField, "a first or last name is required"))
			continue
		}
		if !validator.ValidateRow(row) {
			continue
		}

		conn := toConnection(row)
		key := network.ConnectionKey(conn.ProfileURL, conn.FirstName, conn.LastName, conn.Company)
		if first, dup := seen[key]; dup {
			errs.Add(NewRowError(row.LineNumber, "", ErrCodeImportDuplicate,
				fmt.Sprintf("duplicate connection (first seen in row %d)", first)))
			continue
		}
		seen[key] = row.LineNumber
		result.Connections = append(result.Connections, conn)
	}

	result.TotalRows = parser.TotalRows()
	result.Errors = errs.Errors()
	result.TotalErrors = errs.TotalCount()
	result.Truncated = errs.IsTruncated()
	return result, nil
}

func toConnection(row *Row) Connection {
	c := Connection{
		Line: row.LineNumber,
		ConnectionData: network.ConnectionData{
			FirstName:  NormalizeNameCase(row.Get(ColFirstName)),
			LastName:   NormalizeNameCase(row.Get(ColLastName)),
			Email:      strings.ToLower(row.Get(ColEmail)),
			Company:    strings.Join(strings.Fields(row.Get(ColCompany)), " "),
			Position:   strings.Join(strings.Fields(row.Get(ColPosition)), " "),
			ProfileURL: strings.TrimRight(row.Get(ColURL), "/"),
		},
	}
	if v := row.Get(ColConnectedOn); v != "" {
		if t, err := parseConnectedOn(v); err == nil {
			c.ConnectedOn = &t
		}
	}
	return c
}

// NormalizeNameCase title-cases names typed entirely in upper or lower case.
// Mixed-case names such as "McDonald" or "van der Berg" are kept as written.
func NormalizeNameCase(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	hasUpper, hasLower := false, false
	for _, r := range name {
		if unicode.IsUpper(r) {
			hasUpper = true
		} else if unicode.IsLower(r) {
			hasLower = true
		}
	}
	if hasUpper && hasLower {
		return name
	}
	return titleCaser.String(name)
}

func parseConnectedOn(v string) (time.Time, error) {
	for _, layout := range connectedOnLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", v)
}

func validateProfileURL(v string) error {
	if !strings.HasPrefix(v, "https://") && !strings.HasPrefix(v, "http://") {
		return errors.New("profile URL must start with http:// or https://")
	}
	return nil
}
