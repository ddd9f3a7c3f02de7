package ensemble

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/tctsim/internal/carrier"
	"github.com/san-kum/tctsim/internal/physics"
)

var ErrMalformedRecord = errors.New("ensemble: malformed carrier record")

// ParseError locates the first bad line of a carrier file.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse reads carrier records. Blank lines are skipped and fields after the
// fifth are ignored; the first malformed line aborts with a *ParseError.
func Parse(r io.Reader) ([]carrier.Carrier, error) {
	var out []carrier.Carrier

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		c, err := parseRecord(fields)
		if err != nil {
			return nil, &ParseError{Line: line, Text: text, Err: err}
		}
		out = append(out, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read carriers: %w", err)
	}
	return out, nil
}

func parseRecord(fields []string) (carrier.Carrier, error) {
	if len(fields) < 5 {
		return carrier.Carrier{}, fmt.Errorf("%w: want 5 fields, got %d", ErrMalformedRecord, len(fields))
	}

	kind, err := physics.ParseKind(fields[0])
	if err != nil {
		return carrier.Carrier{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	names := [...]string{"charge", "x", "y", "generation time"}
	var v [4]float64
	for i := range v {
		v[i], err = strconv.ParseFloat(fields[i+1], 64)
		if err != nil || math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return carrier.Carrier{}, fmt.Errorf("%w: %s %q", ErrMalformedRecord, names[i], fields[i+1])
		}
	}

	return carrier.New(kind, v[0], physics.Vec2{X: v[1], Y: v[2]}, v[3]), nil
}

// WriteRecords writes carriers in the layout Parse reads.
func WriteRecords(w io.Writer, carriers []carrier.Carrier) error {
	bw := bufio.NewWriter(w)
	for _, c := range carriers {
		_, err := fmt.Fprintf(bw, "%c %s %s %s %s\n", byte(c.Kind),
			strconv.FormatFloat(c.Charge, 'g', -1, 64),
			strconv.FormatFloat(c.Init.X, 'g', -1, 64),
			strconv.FormatFloat(c.Init.Y, 'g', -1, 64),
			strconv.FormatFloat(c.GenTime, 'g', -1, 64))
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}
