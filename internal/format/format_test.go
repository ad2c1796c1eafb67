package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCents(t *testing.T) {
	require.Equal(t, "$0.00", Cents(0))
	require.Equal(t, "$0.09", Cents(9))
	require.Equal(t, "$123.45", Cents(12345))
	require.Equal(t, "$1,234,567.89", Cents(123456789))
	require.Equal(t, "-$10.00", Cents(-1000))
}

func TestCentsRange(t *testing.T) {
	require.Equal(t, "$10.00", CentsRange(1000, 1000))
	require.Equal(t, "$10.00 - $25.50", CentsRange(1000, 2550))
}

func TestPercent(t *testing.T) {
	require.Equal(t, "7.25%", Percent(0.0725))
	require.Equal(t, "7%", Percent(0.07))
	require.Equal(t, "0%", Percent(0))
}

func TestDate(t *testing.T) {
	ts := time.Date(2024, time.March, 9, 12, 0, 0, 0, time.UTC)
	require.Equal(t, "Mar 9, 2024", Date(ts))
}
