// CLAUDE:SUMMARY Synonym records, tab-separated source parsing and the dictionary load error taxonomy.
package dict

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrDictionaryLoad is matched by every *LoadError.
var ErrDictionaryLoad = errors.New("dictionary load error")

// LoadError reports a malformed or unreadable synonym source.
type LoadError struct {
	Line   int // 1-based source line, 0 when not line-bound
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := "dictionary load"
	if e.Line > 0 {
		msg += fmt.Sprintf(" line %d", e.Line)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDictionaryLoad) hold for any LoadError.
func (e *LoadError) Is(target error) bool { return target == ErrDictionaryLoad }

// Record is one synonym group: a canonical name and the variants that
// normalize to it.
type Record struct {
	Canonical string   `json:"canonical"`
	Variants  []string `json:"variants"`
}

// ParseTSV reads synonym groups, one per line: canonical name first, then
// zero or more variants, tab-separated, no header.
//
// The canonical field is listed as the first variant of its own record, so
// a line holding only a canonical name is a valid group.
func ParseTSV(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var records []Record
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r\n")
		if line == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		fields := strings.Split(text, "\t")
		canonical := strings.TrimSpace(fields[0])
		if canonical == "" {
			return nil, &LoadError{Line: line, Reason: "empty canonical name"}
		}

		rec := Record{Canonical: canonical, Variants: make([]string, 0, len(fields))}
		for _, f := range fields {
			if v := strings.TrimSpace(f); v != "" {
				rec.Variants = append(rec.Variants, v)
			}
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, &LoadError{Line: line, Reason: "read source", Err: err}
	}
	return records, nil
}

// WriteTSV writes records in the format read by ParseTSV. The canonical
// name is not repeated when it is also the first variant.
func WriteTSV(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		fields := []string{rec.Canonical}
		for i, v := range rec.Variants {
			if i == 0 && v == rec.Canonical {
				continue
			}
			fields = append(fields, v)
		}
		if _, err := bw.WriteString(strings.Join(fields, "\t") + "\n"); err != nil {
			return fmt.Errorf("write record %q: %w", rec.Canonical, err)
		}
	}
	return bw.Flush()
}

func validateRecord(i int, rec Record) error {
	if strings.TrimSpace(rec.Canonical) == "" {
		return &LoadError{Reason: fmt.Sprintf("record %d: empty canonical name", i)}
	}
	if len(rec.Variants) == 0 {
		return &LoadError{Reason: fmt.Sprintf("record %d (%s): no variants", i, rec.Canonical)}
	}
	return nil
}
