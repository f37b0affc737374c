// bintoexcel turns a harvested capture file into an Excel workbook with the
// per-chunk ones count, the cumulative mean and a z-score line chart, as a
// quick sanity view of a device's bit balance. The chunk size is parsed from
// the capture file name (the _cN convention) or given with -chunk.
//
// Usage: bintoexcel [-chunk BYTES] <path-to-.bin>
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"math/bits"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Thiagojm/harvest_go_cli/naming"
)

const (
	sheetName       = "Zscore"
	chunkColumnName = "chunk"
	onesColumnName  = "ones"
)

// dataRow is one chunk's ones count plus the computed cumulative statistics.
type dataRow struct {
	Label          string
	Ones           int
	CumulativeMean float64
	ZScore         float64
}

// readCapture reads the capture file chunk by chunk and counts the set bits
// of each chunk. A partial chunk at EOF is counted as-is.
func readCapture(path string, chunkBytes int) ([]dataRow, error) {
	if chunkBytes <= 0 {
		return nil, errors.New("invalid chunk size")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	rows := make([]dataRow, 0, 1024)
	buf := make([]byte, chunkBytes)
	chunk := 1
	for {
		n, err := io.ReadFull(reader, buf)
		if n == 0 {
			break
		}
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, err
		}
		count := 0
		for i := 0; i < n; i++ {
			count += bits.OnesCount8(buf[i])
		}
		rows = append(rows, dataRow{Label: strconv.Itoa(chunk), Ones: count})
		chunk++
		if n < chunkBytes {
			break
		}
	}
	return rows, nil
}

// calculateZTest computes the cumulative mean of ones and the z-score per
// row against the expected fair-coin distribution:
//
//	expected_mean = 0.5 * chunk_bits
//	expected_std  = sqrt(chunk_bits * 0.25)
//	z_i = (cum_mean_i - expected_mean) / (expected_std / sqrt(i+1))
func calculateZTest(rows []dataRow, chunkBits int) []dataRow {
	expectedMean := 0.5 * float64(chunkBits)
	expectedStdDev := math.Sqrt(float64(chunkBits) * 0.25)
	if expectedStdDev == 0 {
		return rows
	}
	sum := 0
	for i := range rows {
		sum += rows[i].Ones
		cumMean := float64(sum) / float64(i+1)
		z := (cumMean - expectedMean) / (expectedStdDev / math.Sqrt(float64(i+1)))
		rows[i].CumulativeMean = cumMean
		rows[i].ZScore = z
	}
	return rows
}

// writeToExcel writes the rows and a z-score line chart next to the input
// path with a .xlsx extension.
func writeToExcel(rows []dataRow, path string, chunkBits int) error {
	if len(rows) == 0 {
		return errors.New("no data to write")
	}
	fileToSave := strings.TrimSuffix(path, filepath.Ext(path)) + ".xlsx"
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if defaultSheet != sheetName {
		f.NewSheet(sheetName)
		f.DeleteSheet(defaultSheet)
	}

	_ = f.SetCellStr(sheetName, "A1", chunkColumnName)
	_ = f.SetCellStr(sheetName, "B1", onesColumnName)
	_ = f.SetCellStr(sheetName, "C1", "cumulative_mean")
	_ = f.SetCellStr(sheetName, "D1", "z_test")

	for i, r := range rows {
		rowIdx := i + 2
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowIdx), r.Label)
		_ = f.SetCellInt(sheetName, fmt.Sprintf("B%d", rowIdx), r.Ones)
		_ = f.SetCellFloat(sheetName, fmt.Sprintf("C%d", rowIdx), r.CumulativeMean, 6, 64)
		_ = f.SetCellFloat(sheetName, fmt.Sprintf("D%d", rowIdx), r.ZScore, 6, 64)
	}

	endRow := len(rows) + 1
	chart := &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{
			{
				Name:       fmt.Sprintf("%s!$D$1", sheetName),
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheetName, endRow),
				Values:     fmt.Sprintf("%s!$D$2:$D$%d", sheetName, endRow),
			},
		},
		Title:  []excelize.RichTextRun{{Text: filepath.Base(path)}},
		Legend: excelize.ChartLegend{Position: "none"},
		XAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Chunk number"}}},
		YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: fmt.Sprintf("Z-score - chunk size = %d bits", chunkBits)}}, MajorGridLines: true},
	}
	if err := f.AddChart(sheetName, "F2", chart); err != nil {
		return err
	}

	return f.SaveAs(fileToSave)
}

func run(path string, chunkOverride int) error {
	chunkBytes := chunkOverride
	if chunkBytes == 0 {
		var err error
		chunkBytes, err = naming.ParseChunkSize(path)
		if err != nil {
			return fmt.Errorf("%w (use -chunk)", err)
		}
	}

	rows, err := readCapture(path, chunkBytes)
	if err != nil {
		return err
	}
	rows = calculateZTest(rows, chunkBytes*8)
	return writeToExcel(rows, path, chunkBytes*8)
}

func main() {
	chunkFlag := flag.Int("chunk", 0, "chunk size in bytes (default: parse from file name)")
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: bintoexcel [-chunk BYTES] <path-to-.bin>")
		os.Exit(2)
	}
	if err := run(flag.Arg(0), *chunkFlag); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
