package stf

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/lzw"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	kin "github.com/molviz/kinetraj"
)

const (
	lzwLitwidth int = 8
	//STF coordinates are in A, kinetraj positions in nm
	nm2A = 10.0
	//default number of decimals kept
	defaultPrec = 2
)

// StfW writes an STF trajectory.
type StfW struct {
	f         *os.File
	h         io.WriteCloser
	b         *bufio.Writer
	natoms    int
	filename  string
	writeable bool
	prec      int
	mult      float64
}

// Close flushes and closes the file.
func (S *StfW) Close() error {
	if S == nil || !S.writeable {
		return nil
	}
	S.writeable = false
	err := S.b.Flush()
	if err2 := S.h.Close(); err == nil {
		err = err2
	}
	if err2 := S.f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return &Error{err.Error(), S.filename, []string{"Close"}, true}
	}
	return nil
}

// Len returns the number of atoms per frame.
func (S *StfW) Len() int {
	return S.natoms
}

// WNext writes the frame f. Positions are converted from nm to A, as the
// format requires, and so is the box, which is written only if it is not zero.
func (S *StfW) WNext(f *kin.Frame) error {
	if !S.writeable {
		return &Error{TrajUnIniWrite, S.filename, []string{"WNext"}, true}
	}
	if f == nil {
		return &Error{NilCoordinates, S.filename, []string{"WNext"}, true}
	}
	if len(f.Coords) != S.natoms {
		return &Error{fmt.Sprintf("%d coordinates given, but %d expected", len(f.Coords), S.natoms), S.filename, []string{"WNext"}, true}
	}
	var temp [3]int
	for _, c := range f.Coords {
		S.b.WriteString(coordsEncode([3]float64{c.X * nm2A, c.Y * nm2A, c.Z * nm2A}, temp, S.mult))
	}
	if f.Box == ([9]float64{}) {
		S.b.WriteString("*\n")
		return nil
	}
	b := f.Box
	_, err := fmt.Fprintf(S.b, "* %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f\n", b[0]*nm2A,
		b[1]*nm2A, b[2]*nm2A, b[3]*nm2A, b[4]*nm2A, b[5]*nm2A, b[6]*nm2A, b[7]*nm2A, b[8]*nm2A)
	if err != nil {
		return &Error{err.Error(), S.filename, []string{"WNext"}, true}
	}
	return nil
}

// NewWriter creates the STF file name, for frames of natoms atoms. header is
// written as key=value lines, sorted by key; the "prec" key, if present, sets
// the number of decimals kept (2 by default). The compressor is chosen by the
// last letter of the name: 'l' lzw, 'z' gzip, 'r' raw deflate, anything else
// zstd. compressionLevel only applies to gzip and deflate.
func NewWriter(name string, natoms int, header map[string]string, compressionLevel ...int) (*StfW, error) {
	var level int = gzip.BestCompression
	if len(compressionLevel) > 0 {
		level = compressionLevel[0]
	}
	S := new(StfW)
	S.filename = name
	S.natoms = natoms
	S.prec = defaultPrec
	if p, ok := header["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err == nil && prec > 0 {
			S.prec = prec
		} else {
			log.Printf("Invalid precision %q for trajectory %s. Will use the default", p, S.filename)
		}
	}
	S.mult = math.Pow(10, float64(S.prec))
	var err error
	S.f, err = os.Create(name)
	if err != nil {
		return nil, &Error{UnableToOpen + ": " + err.Error(), name, []string{"NewWriter"}, true}
	}
	zwriter := func(a io.Writer) (io.WriteCloser, error) { return flate.NewWriter(a, level) }
	gzipwriter := func(a io.Writer) (io.WriteCloser, error) { return gzip.NewWriterLevel(a, level) }
	zstdwriter := func(a io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(a, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	}
	var AnyNewWriter func(io.Writer) (io.WriteCloser, error)
	switch strings.ToLower(name)[len(name)-1] {
	case 'l':
		AnyNewWriter = func(a io.Writer) (io.WriteCloser, error) { return lzw.NewWriter(a, lzw.MSB, lzwLitwidth), nil }
	case 'z':
		AnyNewWriter = gzipwriter
	case 'r':
		AnyNewWriter = zwriter
	default:
		AnyNewWriter = zstdwriter
	}
	S.h, err = AnyNewWriter(S.f)
	if err != nil {
		S.f.Close()
		return nil, &Error{"Can't start compressor " + err.Error(), S.filename, []string{"NewWriter"}, true}
	}
	S.b = bufio.NewWriter(S.h)
	keys := make([]string, 0, len(header)+1)
	for k := range header {
		if k != "prec" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(S.b, "%s=%v\n", k, strings.ReplaceAll(header[k], "\n", " "))
	}
	fmt.Fprintf(S.b, "prec=%d\n", S.prec)
	fmt.Fprintf(S.b, "** %d\n", S.natoms)
	S.writeable = true
	return S, nil
}

func coordsEncode(f [3]float64, temp [3]int, mult float64) string {
	for i, v := range f {
		temp[i] = int(math.RoundToEven(v * mult))
	}
	return fmt.Sprintf("%d %d %d\n", temp[0], temp[1], temp[2])
}

//Errors

// Error is the general structure for STF trajectory errors. It fullfills kin.Error and kin.TrajError
type Error struct {
	message  string
	filename string //the file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err *Error) Error() string {
	return fmt.Sprintf("stf file %s error: %s", err.filename, err.message)
}

// Decorate adds new information to the error and returns the whole decoration.
func (E *Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

// FileName returns the file to which the failing trajectory was associated
func (err *Error) FileName() string { return err.filename }

// Format returns the format of the file (always "stf") associated to the error
func (err *Error) Format() string { return "stf" }

// Critical returns true if the error is critical, false otherwise
func (err *Error) Critical() bool { return err.critical }

const (
	TrajUnIniWrite = "Traj object uninitialized to write"
	UnableToOpen   = "Unable to open file"
	NilCoordinates = "Given nil coordinates"
)
