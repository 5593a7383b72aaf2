// Package validator supplies a default sample-ID check-digit validator
// (spec §3 "Sample identifier", §9 "validate_sample(id) → bool"). The
// core treats identifiers as opaque strings; this is a batteries-included
// default a host dialect may use as-is or override.
package validator

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const checkInt = 23

// checkLetters is not alphabetical and not the full alphabet; it is the
// literal lookup table the host's check-digit algorithm uses.
var checkLetters = []byte{'B', 'W', 'D', 'F', 'G', 'K', 'Q', 'V', 'Y', 'X', 'A', 'S', 'T', 'N', 'J', 'H', 'R', 'P', 'L', 'C', 'Z', 'M', 'E'}

// SampleID is a parsed "A,YY.NNNNNNN.C" identifier: a two-digit year, a
// seven-digit lab number, and a single check-digit letter.
type SampleID struct {
	Year      int
	LabNumber int
	CheckChar byte
}

// Parse accepts the flexible dot-separated forms the host emits: a bare
// 7-digit lab number (year defaults to current), "YY.NNNNNNN",
// "NNNNNNN.C", "YY.NNNNNNNC" (check digit glued on), or the full
// "YY.NNNNNNN.C". A bare "NNNNNNNC" without the year is rejected. An optional "A," (or any two-char) prefix is stripped
// first. Mirrors the original driver's SampleID constructor.
func Parse(raw string) (SampleID, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if len(s) > 1 && s[1] == ',' {
		s = s[2:]
	}

	parts := strings.Split(s, ".")
	var id SampleID

	switch len(parts) {
	case 1:
		if len(parts[0]) != 7 {
			return SampleID{}, fmt.Errorf("no 7-digit sample id found in %q", raw)
		}
		n, err := strconv.Atoi(parts[0])
		if err != nil {
			return SampleID{}, fmt.Errorf("parsing lab number: %w", err)
		}
		id.LabNumber = n

	case 2:
		switch len(parts[0]) {
		case 2:
			y, err := strconv.Atoi(parts[0])
			if err != nil {
				return SampleID{}, fmt.Errorf("parsing year: %w", err)
			}
			id.Year = y
		case 7:
			n, err := strconv.Atoi(parts[0])
			if err != nil {
				return SampleID{}, fmt.Errorf("parsing lab number: %w", err)
			}
			id.LabNumber = n
		default:
			return SampleID{}, fmt.Errorf("cannot parse %q as year or sample id", parts[0])
		}

		switch len(parts[1]) {
		case 1:
			id.CheckChar = parts[1][0]
		case 7:
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				return SampleID{}, fmt.Errorf("parsing lab number: %w", err)
			}
			id.LabNumber = n
		case 8:
			last := parts[1][7]
			if last < 'A' || last > 'Z' {
				return SampleID{}, fmt.Errorf("cannot parse %q as sample id or check digit", parts[1])
			}
			n, err := strconv.Atoi(parts[1][:7])
			if err != nil {
				return SampleID{}, fmt.Errorf("parsing lab number: %w", err)
			}
			id.LabNumber = n
			id.CheckChar = last
		default:
			return SampleID{}, fmt.Errorf("cannot parse %q as sample id or check digit", parts[1])
		}

	case 3:
		if len(parts[0]) != 2 || len(parts[1]) != 7 || len(parts[2]) != 1 {
			return SampleID{}, fmt.Errorf("malformed sample id %q", raw)
		}
		y, err := strconv.Atoi(parts[0])
		if err != nil {
			return SampleID{}, fmt.Errorf("parsing year: %w", err)
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return SampleID{}, fmt.Errorf("parsing lab number: %w", err)
		}
		id.Year, id.LabNumber, id.CheckChar = y, n, parts[2][0]

	default:
		return SampleID{}, fmt.Errorf("cannot parse sample id %q", raw)
	}

	if id.Year == 0 {
		id.Year = time.Now().Year() % 100
	}
	if id.LabNumber == 0 {
		return SampleID{}, fmt.Errorf("no lab number present in %q", raw)
	}
	if id.CheckChar == 0 {
		id.CheckChar = id.computeCheckDigit()
	}
	return id, nil
}

func (id SampleID) String() string {
	return fmt.Sprintf("%02d.%07d.%c", id.Year, id.LabNumber, id.CheckChar)
}

// computeCheckDigit derives the expected check letter for this id's
// year+lab-number by brute force (mirrors iterate_check_digit).
func (id SampleID) computeCheckDigit() byte {
	for _, c := range checkLetters {
		probe := id
		probe.CheckChar = c
		if probe.checkDigitMatches() {
			return c
		}
	}
	return checkLetters[0]
}

// checkDigitMatches runs the host's mod-23 check-digit algorithm: digits
// of "YYNNNNNNN" are weighted 22 down to 14, summed, and
// 23-(sum%23) indexes into checkLetters.
func (id SampleID) checkDigitMatches() bool {
	digits := fmt.Sprintf("%02d%07d", id.Year, id.LabNumber)
	if len(digits) != 9 {
		return false
	}
	sum := 0
	weight := 22
	for i := 0; i < len(digits); i++ {
		sum += weight * int(digits[i]-'0')
		weight--
	}
	idx := checkInt - (sum % checkInt)
	if idx < 1 || idx > len(checkLetters) {
		return false
	}
	return checkLetters[idx-1] == id.CheckChar
}

// Validate implements the default sample_id_validator callback (spec §6):
// it parses raw and checks its check digit against the computed one.
func Validate(raw string) bool {
	id, err := Parse(raw)
	if err != nil {
		return false
	}
	return id.checkDigitMatches()
}
