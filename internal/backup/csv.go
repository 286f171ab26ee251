// Package backup serializes a region's beer records to CSV and writes
// them through a storage provider. The backup file is the recovery path
// if the document-store insert fails, so the codec must round-trip every
// record field, including absent numerics.
package backup

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hoplog/brewharvest/internal/pipeline"
)

var csvHeader = []string{
	"name",
	"abv",
	"ibu",
	"calories",
	"isRetired",
	"overallScore",
	"averageRating",
	"ratingCount",
	"styleName",
	"brewerName",
	"brewerRegion",
}

// FileName returns the per-region backup file name: the region name with
// spaces removed, suffixed with the entity kind.
func FileName(regionName string) string {
	return strings.ReplaceAll(regionName, " ", "") + "_Brewers.csv"
}

// EncodeCSV serializes records with a header row in fixed column order.
func EncodeCSV(records []pipeline.BeerRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		row := []string{
			rec.Name,
			formatFloat(rec.Abv),
			formatFloat(rec.Ibu),
			formatFloat(rec.Calories),
			strconv.FormatBool(rec.IsRetired),
			formatFloat(rec.OverallScore),
			formatFloat(rec.AverageRating),
			strconv.Itoa(rec.RatingCount),
			rec.StyleName,
			rec.BrewerName,
			rec.BrewerRegion,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeCSV reverses EncodeCSV. It verifies the header so a stale or
// foreign file is rejected rather than silently misread.
func DecodeCSV(r io.Reader) ([]pipeline.BeerRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty backup file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range csvHeader {
		if header[i] != col {
			return nil, fmt.Errorf("unexpected header column %d: got %q, want %q", i, header[i], col)
		}
	}

	var records []pipeline.BeerRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		rec := pipeline.BeerRecord{
			Name:         row[0],
			StyleName:    row[8],
			BrewerName:   row[9],
			BrewerRegion: row[10],
		}
		if rec.Abv, err = parseFloat(row[1]); err != nil {
			return nil, fmt.Errorf("line %d abv: %w", line, err)
		}
		if rec.Ibu, err = parseFloat(row[2]); err != nil {
			return nil, fmt.Errorf("line %d ibu: %w", line, err)
		}
		if rec.Calories, err = parseFloat(row[3]); err != nil {
			return nil, fmt.Errorf("line %d calories: %w", line, err)
		}
		if rec.IsRetired, err = strconv.ParseBool(row[4]); err != nil {
			return nil, fmt.Errorf("line %d isRetired: %w", line, err)
		}
		if rec.OverallScore, err = parseFloat(row[5]); err != nil {
			return nil, fmt.Errorf("line %d overallScore: %w", line, err)
		}
		if rec.AverageRating, err = parseFloat(row[6]); err != nil {
			return nil, fmt.Errorf("line %d averageRating: %w", line, err)
		}
		if rec.RatingCount, err = strconv.Atoi(row[7]); err != nil {
			return nil, fmt.Errorf("line %d ratingCount: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
