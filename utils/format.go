package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MessageType is a custom type used as a placeholder for various message types.
type MessageType int

// The message types used across the CLI application.
const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
)

// Colors used across the CLI application.
const (
	DefaultColor = "\x1b[0m"
	StatusColor  = "\x1b[36m"
	SuccessColor = "\x1b[32m"
	ErrorColor   = "\x1b[31m"
)

// DecorateText shows the message types in different colors.
func DecorateText(s string, msgType MessageType) string {
	switch msgType {
	case DefaultMessage:
		s = DefaultColor + s
	case StatusMessage:
		s = StatusColor + s
	case SuccessMessage:
		s = SuccessColor + s
	case ErrorMessage:
		s = ErrorColor + s
	default:
		return s
	}
	return s + DefaultColor
}

// FormatTime formats time.Duration output to a human readable value.
func FormatTime(d time.Duration) string {
	if d.Seconds() < 60.0 {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	if d.Minutes() < 60.0 {
		remainingSeconds := math.Mod(d.Seconds(), 60)
		return fmt.Sprintf("%dm %.2fs", int64(d.Minutes()), remainingSeconds)
	}
	remainingMinutes := math.Mod(d.Minutes(), 60)
	remainingSeconds := math.Mod(d.Seconds(), 60)
	return fmt.Sprintf("%dh %dm %.2fs",
		int64(d.Hours()), int64(remainingMinutes), remainingSeconds)
}

// FormatSize formats a byte count to a human readable value, e.g. 1.50MB.
func FormatSize(size int64) string {
	const (
		kb = 1 << 10
		mb = 1 << 20
		gb = 1 << 30
	)
	switch {
	case size >= gb:
		return fmt.Sprintf("%.2fGB", float64(size)/gb)
	case size >= mb:
		return fmt.Sprintf("%.2fMB", float64(size)/mb)
	case size >= kb:
		return fmt.Sprintf("%.2fKB", float64(size)/kb)
	}
	return fmt.Sprintf("%dB", size)
}

// ParseSize converts a human readable size like "1.5MB", "800KB" or a plain
// number of bytes into a byte count.
func ParseSize(s string) (int64, error) {
	str := strings.TrimSpace(strings.ToUpper(s))
	if str == "" {
		return 0, fmt.Errorf("empty size value")
	}

	mult := float64(1)
	switch {
	case strings.HasSuffix(str, "GB"):
		mult, str = 1<<30, strings.TrimSuffix(str, "GB")
	case strings.HasSuffix(str, "MB"):
		mult, str = 1<<20, strings.TrimSuffix(str, "MB")
	case strings.HasSuffix(str, "KB"):
		mult, str = 1<<10, strings.TrimSuffix(str, "KB")
	case strings.HasSuffix(str, "B"):
		str = strings.TrimSuffix(str, "B")
	}

	val, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", s, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("size value %q should be a positive number", s)
	}
	return int64(val * mult), nil
}
