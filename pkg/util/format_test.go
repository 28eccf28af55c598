package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$0", FormatPrice(0))
	assert.Equal(t, "$64250.50", FormatPrice(64250.5))
	assert.Equal(t, "$1.00", FormatPrice(1))
	assert.Equal(t, "$0.00001234", FormatPrice(0.00001234))
	assert.Equal(t, "$0.5", FormatPrice(0.5))
}

func TestFormatCompact(t *testing.T) {
	assert.Equal(t, "$1.23B", FormatCompact(1_234_567_890))
	assert.Equal(t, "$45.60M", FormatCompact(45_600_000))
	assert.Equal(t, "$7.80K", FormatCompact(7_800))
	assert.Equal(t, "$12.00", FormatCompact(12))
	assert.Equal(t, "-$2.00T", FormatCompact(-2e12))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+3.46%", FormatPercent(3.456))
	assert.Equal(t, "-0.10%", FormatPercent(-0.1))
	assert.Equal(t, "0.00%", FormatPercent(0))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc…", Truncate("abcdef", 3))
}
