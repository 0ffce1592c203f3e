package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSerial_Epoch(t *testing.T) {
	assert.Equal(t, time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC), FromSerial(0))
	assert.Equal(t, time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 44000), FromSerial(44000))
}

func TestParseDate_SerialString(t *testing.T) {
	got, err := ParseDate("44000", "")
	require.NoError(t, err)
	assert.Equal(t, FromSerial(44000), got)
}

func TestParseDate_DayFirstFallback(t *testing.T) {
	got, err := ParseDate("25/12/2023", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDate_ISO(t *testing.T) {
	got, err := ParseDate("2023-12-25", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := ParseDate("not a date", "")
	assert.Error(t, err)

	_, err = ParseDate("  ", "")
	assert.Error(t, err)
}

func TestParseFlexible_PrefersMonthFirst(t *testing.T) {
	// 03/04/2024 is ambiguous; the flexible chain reads it month-first.
	got, err := ParseFlexible("03/04/2024")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), got)
}

func TestParseFlexible_SerialFallback(t *testing.T) {
	got, err := ParseFlexible("45000")
	require.NoError(t, err)
	assert.Equal(t, FromSerial(45000), got)
}
