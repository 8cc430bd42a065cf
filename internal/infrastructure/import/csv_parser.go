package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// maxPreambleLines bounds how far ParseHeader searches for the header marker
const maxPreambleLines = 25

// CSVParser reads CSV files that may carry a BOM and free-text lines before the header
type CSVParser struct {
	delimiter    rune
	headerMarker string
	headerMap    map[string]int
	headers      []string
	currentRow   int
	totalRows    int
	reader       *csv.Reader
	bufReader    *bufio.Reader
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// WithHeaderMarker makes ParseHeader skip lines until one whose first cell equals marker (case-insensitive)
func WithHeaderMarker(marker string) ParserOption {
	return func(p *CSVParser) {
		p.headerMarker = marker
	}
}

// NewCSVParser creates a new CSV parser from a reader
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	parser := &CSVParser{
		delimiter: ',',
		headerMap: make(map[string]int),
	}
	for _, opt := range opts {
		opt(parser)
	}

	parser.bufReader = bufio.NewReader(r)

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	content, err := parser.bufReader.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = parser.bufReader.Discard(3)
	}

	if err := validateUTF8(parser.bufReader); err != nil {
		return nil, err
	}

	parser.reader = csv.NewReader(parser.bufReader)
	parser.reader.Comma = parser.delimiter
	parser.reader.LazyQuotes = true
	parser.reader.TrimLeadingSpace = true
	parser.reader.FieldsPerRecord = -1
	return parser, nil
}

// ParseFromBytes creates a parser from a byte slice
func ParseFromBytes(data []byte, opts ...ParserOption) (*CSVParser, error) {
	return NewCSVParser(bytes.NewReader(data), opts...)
}

func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return ErrEmptyFile
	}
	// a multi-byte rune may straddle the peek boundary
	if len(content) == checkSize {
		for i := 0; i < utf8.UTFMax && len(content) > 0 && !utf8.Valid(content); i++ {
			content = content[:len(content)-1]
		}
	}
	if !utf8.Valid(content) {
		return ErrInvalidEncoding
	}
	return nil
}

// ParseHeader reads the header row, skipping any preamble when a header marker is set
func (p *CSVParser) ParseHeader() error {
	for attempt := 0; ; attempt++ {
		record, err := p.reader.Read()
		if err == io.EOF {
			return ErrMissingHeader
		}
		p.currentRow = p.lineOf(err)
		if err != nil {
			// preamble lines are free text and may not be valid CSV
			if p.headerMarker != "" && attempt < maxPreambleLines {
				continue
			}
			return fmt.Errorf("failed to read header: %w", err)
		}
		if p.headerMarker == "" || (len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), p.headerMarker)) {
			p.setHeaders(record)
			return nil
		}
		if attempt >= maxPreambleLines {
			return ErrMissingHeader
		}
	}
}

func (p *CSVParser) setHeaders(record []string) {
	p.headers = make([]string, len(record))
	for i, h := range record {
		h = strings.TrimSpace(h)
		p.headers[i] = h
		p.headerMap[strings.ToLower(h)] = i
	}
}

// Headers returns the parsed header names
func (p *CSVParser) Headers() []string {
	return p.headers
}

// HasHeader checks if a header exists, ignoring case
func (p *CSVParser) HasHeader(name string) bool {
	_, ok := p.headerMap[strings.ToLower(name)]
	return ok
}

// MissingHeaders returns the required headers that are absent
func (p *CSVParser) MissingHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is a parsed CSV row with its line number in the file
type Row struct {
	LineNumber int
	data       map[string]string
}

// Get returns the value for a column by header name, ignoring case
func (r *Row) Get(header string) string {
	return r.data[strings.ToLower(header)]
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next row. io.EOF marks the end of the file.
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow = p.lineOf(err)
	if err != nil {
		return nil, NewRowError(p.currentRow, "", ErrCodeImportMalformedRow, err.Error())
	}
	p.totalRows++

	row := &Row{
		LineNumber: p.currentRow,
		data:       make(map[string]string, len(p.headers)),
	}
	for i, header := range p.headers {
		value := ""
		if i < len(record) {
			value = strings.TrimSpace(record[i])
		}
		row.data[strings.ToLower(header)] = value
	}
	return row, nil
}

// lineOf returns the file line of the record just read, or of the record that failed to parse
func (p *CSVParser) lineOf(err error) int {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.StartLine
	}
	if err != nil {
		return p.currentRow + 1
	}
	line, _ := p.reader.FieldPos(0)
	return line
}

// CurrentRow returns the file line of the last record read (1-indexed)
func (p *CSVParser) CurrentRow() int {
	return p.currentRow
}

// TotalRows returns the number of data rows read
func (p *CSVParser) TotalRows() int {
	return p.totalRows
}
