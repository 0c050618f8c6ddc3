package brayns

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrNonIntegralScale is returned when ScaleRepeat is asked to repeat a
// sequence a fractional number of times.
var ErrNonIntegralScale = errors.New("scale factor must be a whole number when repeating")

// ErrScaleOutOfRange is returned when ScaleRepeat would repeat a sequence
// more than MaxRepeatedLen values long.
var ErrScaleOutOfRange = errors.New("scale factor out of range when repeating")

// MaxRepeatedLen bounds the length of an axis sequence produced by ScaleRepeat.
const MaxRepeatedLen = math.MaxInt32

// Positions holds node coordinates, one slice per axis.
type Positions struct {
	X []float64
	Y []float64
	Z []float64
}

// Len returns the number of nodes.
func (p Positions) Len() int {
	return len(p.X)
}

// ReadPositions parses node positions: one node per line, three
// whitespace separated numbers (x y z), no header. Any line that does not hold
// exactly three numbers is an error, blank lines included.
func ReadPositions(r io.Reader) (Positions, error) {
	p := Positions{
		X: []float64{},
		Y: []float64{},
		Z: []float64{},
	}

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 {
			return Positions{}, fmt.Errorf("line %d: expected 3 values, got %d", line, len(fields))
		}
		var xyz [3]float64
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return Positions{}, fmt.Errorf("line %d: %w", line, err)
			}
			xyz[i] = v
		}
		p.X = append(p.X, xyz[0])
		p.Y = append(p.Y, xyz[1])
		p.Z = append(p.Z, xyz[2])
	}
	if err := scanner.Err(); err != nil {
		return Positions{}, err
	}
	return p, nil
}

// ReadPositionsFile opens path and parses it with ReadPositions.
func ReadPositionsFile(path string) (Positions, error) {
	f, err := os.Open(path)
	if err != nil {
		return Positions{}, err
	}
	defer f.Close()

	p, err := ReadPositions(f)
	if err != nil {
		return Positions{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Scaled applies one scale factor per axis according to mode.
// With ScaleRepeat each axis sequence is repeated factor times (zero or
// negative factors give an empty sequence, and fractional, infinite or
// oversized factors are errors). With ScaleMultiply each coordinate
// is multiplied by its factor.
func (p Positions) Scaled(scale []float64, mode ScaleMode) (Positions, error) {
	if len(scale) < 3 {
		return Positions{}, fmt.Errorf("scale needs 3 factors, got %d", len(scale))
	}

	axes := [3][]float64{p.X, p.Y, p.Z}
	var out [3][]float64
	for i, seq := range axes {
		var err error
		switch mode {
		case ScaleMultiply:
			out[i] = multiply(seq, scale[i])
		case ScaleRepeat:
			out[i], err = repeat(seq, scale[i])
		default:
			err = fmt.Errorf("unknown scale mode %d", mode)
		}
		if err != nil {
			return Positions{}, err
		}
	}
	return Positions{X: out[0], Y: out[1], Z: out[2]}, nil
}

func repeat(seq []float64, factor float64) ([]float64, error) {
	if factor != math.Trunc(factor) {
		return nil, fmt.Errorf("%w: %v", ErrNonIntegralScale, factor)
	}
	if math.Abs(factor) > MaxRepeatedLen {
		return nil, fmt.Errorf("%w: %v", ErrScaleOutOfRange, factor)
	}
	n := int(factor)
	if n <= 0 {
		return []float64{}, nil
	}
	if len(seq) > 0 && n > MaxRepeatedLen/len(seq) {
		return nil, fmt.Errorf("%w: %v x %d values", ErrScaleOutOfRange, factor, len(seq))
	}
	out := make([]float64, 0, len(seq)*n)
	for range n {
		out = append(out, seq...)
	}
	return out, nil
}

func multiply(seq []float64, factor float64) []float64 {
	out := make([]float64, len(seq))
	for i, v := range seq {
		out[i] = v * factor
	}
	return out
}
