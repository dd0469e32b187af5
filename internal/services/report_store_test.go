package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trustdesk/backend/internal/models"
)

func TestReportFilterDefaults(t *testing.T) {
	f := ReportFilter{}
	require.NoError(t, f.normalize())
	require.Equal(t, DefaultListLimit, f.Limit)
	require.Equal(t, 0, f.Offset)
}

func TestReportFilterClampsLimit(t *testing.T) {
	f := ReportFilter{Limit: 5000, Offset: -3}
	require.NoError(t, f.normalize())
	require.Equal(t, MaxListLimit, f.Limit)
	require.Equal(t, 0, f.Offset)
}

func TestReportFilterRejectsUnknownTokens(t *testing.T) {
	f := ReportFilter{Status: models.ReportStatus("PENDING")}
	require.ErrorIs(t, f.normalize(), ErrInvalidParameter)

	f = ReportFilter{Type: models.ReportType("VIDEO")}
	require.ErrorIs(t, f.normalize(), ErrInvalidParameter)
}

func TestReportFilterAcceptsKnownTokens(t *testing.T) {
	f := ReportFilter{Status: models.StatusInReview, Type: models.TypeMedia, Limit: 25}
	require.NoError(t, f.normalize())
	require.Equal(t, 25, f.Limit)
}
