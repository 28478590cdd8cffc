package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Parse reads NORAD element sets from r, in either 3-line (name + two element
// lines) or bare 2-line form, and returns them in input order.
//
// Only the structure is checked here: a record is any name line followed by a
// line starting "1 " and a line starting "2 ". Catalog number and epoch are
// extracted best effort; element sets that cannot be propagated are rejected
// later, per object, so the offending identifier can be reported. Lines that
// fit no record are skipped with a warning log.
func Parse(r io.Reader, logger *slog.Logger) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var records []Record
	for i := 0; i < len(lines); {
		// Bare 2-line form.
		if i+1 < len(lines) && isLine(lines[i], '1') && isLine(lines[i+1], '2') {
			records = append(records, newRecord("", lines[i], lines[i+1]))
			i += 2
			continue
		}
		if i+2 < len(lines) && isLine(lines[i+1], '1') && isLine(lines[i+2], '2') {
			records = append(records, newRecord(strings.TrimSpace(lines[i]), lines[i+1], lines[i+2]))
			i += 3
			continue
		}
		// Try to find next valid triplet.
		logger.Warn("skipping unrecognised TLE line", "line_index", i, "line", lines[i])
		i++
	}

	return records, nil
}

func isLine(s string, n byte) bool {
	return len(s) >= 2 && s[0] == n && s[1] == ' '
}

// newRecord extracts the catalog number (cols 3-7) and epoch (cols 19-32) from line1.
func newRecord(name, line1, line2 string) Record {
	name = strings.TrimPrefix(name, "0 ")
	rec := Record{Name: name, Line1: line1, Line2: line2}
	if len(line1) >= 7 {
		if id, err := strconv.Atoi(strings.TrimSpace(line1[2:7])); err == nil {
			rec.NORADID = id
		}
	}
	if len(line1) >= 32 {
		if epoch, err := parseEpoch(strings.TrimSpace(line1[18:32])); err == nil {
			rec.Epoch = epoch
		}
	}
	return rec
}

// parseEpoch converts a TLE epoch string in YYDDD.DDDDDDDD format to time.Time.
// Year 00-56 → 2000s, 57-99 → 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	yearStr := s[:2]
	dayStr := s[2:]

	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", yearStr, err)
	}

	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(dayStr, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", dayStr, err)
	}
	if dayOfYear < 1 || dayOfYear >= 367 {
		return time.Time{}, fmt.Errorf("epoch day %v out of range", dayOfYear)
	}

	// dayOfYear is 1-based: day 1 = Jan 1.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}
