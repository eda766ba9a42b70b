package sizeunit

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"toomuchleft/internal/domain"
)

const Unlimited = "unlimited"

var units = []string{"B", "KB", "MB", "GB", "TB"}

var sizePattern = regexp.MustCompile(`^(\d+)\s*(B|KB|MB|GB|TB)$`)

var (
	ErrMalformed = errors.New("expected <integer><B|KB|MB|GB|TB>")
	ErrOverflow  = errors.New("size overflows 64 bits")
)

// Parse converts "10MB" style strings to bytes using base 1024.
func Parse(value string) (int64, error) {
	match := sizePattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(value)))
	if match == nil {
		return 0, &domain.ConfigError{Field: "size", Value: value, Err: ErrMalformed}
	}
	number, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, &domain.ConfigError{Field: "size", Value: value, Err: ErrOverflow}
	}
	multiplier := int64(1)
	for _, unit := range units {
		if unit == match[2] {
			break
		}
		multiplier *= 1024
	}
	if number > math.MaxInt64/multiplier {
		return 0, &domain.ConfigError{Field: "size", Value: value, Err: ErrOverflow}
	}
	return number * multiplier, nil
}

func IsUnlimited(value string) bool {
	trimmed := strings.TrimSpace(value)
	return trimmed == "" || strings.EqualFold(trimmed, Unlimited)
}

// ParseFilter builds the size filter for a scan; an empty or "unlimited"
// threshold disables it.
func ParseFilter(op domain.CompareOp, threshold string) (domain.SizeFilter, error) {
	if IsUnlimited(threshold) {
		return domain.SizeFilter{Op: op, Unlimited: true}, nil
	}
	bytes, err := Parse(threshold)
	if err != nil {
		return domain.SizeFilter{}, err
	}
	return domain.SizeFilter{Op: op, Threshold: bytes}, nil
}

// Format renders bytes with two decimals in the largest unit that keeps the
// value under 1024, e.g. 1536 -> "1.50KB".
func Format(size int64) string {
	value := float64(size)
	index := 0
	for value >= 1024 && index < len(units)-1 {
		value /= 1024
		index++
	}
	return fmt.Sprintf("%.2f%s", value, units[index])
}

func FormatFilter(filter domain.SizeFilter) string {
	if filter.Unlimited {
		return Unlimited
	}
	return filter.Op.Symbol() + " " + Format(filter.Threshold)
}
