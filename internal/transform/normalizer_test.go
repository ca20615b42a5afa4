package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"woonstat/internal/extract"
	"woonstat/pkg/errors"
	"woonstat/pkg/models"
)

func TestNormalizeDeduplicates(t *testing.T) {
	rows := []extract.DimensionRow{
		{Code: "T001100", Title: "Totaal"},
		{Code: "1121", Title: "Eengezinswoning"},
		// Same code again on a later extract page
		{Code: "T001100", Title: "Totaal"},
		{Code: "1122", Title: "Meergezinswoning"},
	}

	table, err := Normalize("woningtype", rows)
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.True(t, table.Has("T001100"))
	assert.True(t, table.Has("1121"))
	assert.True(t, table.Has("1122"))

	// First occurrence order survives
	assert.Equal(t, "T001100", table.Rows[0].Code)
	assert.Equal(t, "1122", table.Rows[2].Code)
}

func TestNormalizeConflictFails(t *testing.T) {
	rows := []extract.DimensionRow{
		{Code: "GM0363", Title: "Amsterdam"},
		{Code: "GM0363", Title: "Amsterdam (old)"},
	}

	_, err := Normalize("regios", rows)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateConflict))
	assert.Contains(t, err.Error(), "GM0363")
}

func TestNormalizeConflictOnParent(t *testing.T) {
	rows := []extract.DimensionRow{
		{Code: "GM0363", Title: "Amsterdam", Parent: "PV27"},
		{Code: "GM0363", Title: "Amsterdam", Parent: "PV28"},
	}

	_, err := Normalize("regios", rows)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateConflict))
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		jaar     int
		kwartaal int
		maand    int
		wantErr  bool
	}{
		{name: "quarter", code: "2023KW01", jaar: 2023, kwartaal: 1},
		{name: "fourth quarter", code: "2015KW04", jaar: 2015, kwartaal: 4},
		{name: "month", code: "2023MM07", jaar: 2023, maand: 7},
		{name: "december", code: "2024MM12", jaar: 2024, maand: 12},
		{name: "too short", code: "2023KW", wantErr: true},
		{name: "unknown marker", code: "2023JJ00", wantErr: true},
		{name: "quarter out of range", code: "2023KW05", wantErr: true},
		{name: "month out of range", code: "2023MM13", wantErr: true},
		{name: "garbage year", code: "ABCDKW01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePeriod(tt.code, "naam")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.jaar, p.Jaar)
			if tt.kwartaal != 0 {
				require.NotNil(t, p.Kwartaal)
				assert.Equal(t, tt.kwartaal, *p.Kwartaal)
				assert.Nil(t, p.Maand)
			}
			if tt.maand != 0 {
				require.NotNil(t, p.Maand)
				assert.Equal(t, tt.maand, *p.Maand)
				assert.Nil(t, p.Kwartaal)
			}
		})
	}
}

func TestNormalizePeriodsCombinesCubes(t *testing.T) {
	window := models.Window{StartYear: 2015, EndYear: 2024}
	quarterly := []extract.DimensionRow{
		{Code: "2023KW01", Title: "2023 1e kwartaal"},
		{Code: "2023KW02", Title: "2023 2e kwartaal"},
	}
	monthly := []extract.DimensionRow{
		{Code: "2023MM01", Title: "2023 januari"},
		{Code: "2023MM02", Title: "2023 februari"},
	}

	table, err := NormalizePeriods(window, quarterly, monthly)
	require.NoError(t, err)

	assert.Equal(t, 4, table.Len())
	assert.True(t, table.Has("2023KW02"))
	assert.True(t, table.Has("2023MM02"))
}

func TestNormalizePeriodsAppliesWindow(t *testing.T) {
	window := models.Window{StartYear: 2020, EndYear: 2023}
	rows := []extract.DimensionRow{
		{Code: "2019KW04", Title: "2019 4e kwartaal"},
		{Code: "2020KW01", Title: "2020 1e kwartaal"},
		{Code: "2023KW04", Title: "2023 4e kwartaal"},
		{Code: "2024KW01", Title: "2024 1e kwartaal"},
	}

	table, err := NormalizePeriods(window, rows)
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	assert.False(t, table.Has("2019KW04"))
	assert.False(t, table.Has("2024KW01"))
}

func TestNormalizePeriodsDuplicateAcrossCubes(t *testing.T) {
	window := models.Window{StartYear: 2015, EndYear: 2024}
	a := []extract.DimensionRow{{Code: "2023KW01", Title: "2023 1e kwartaal"}}
	b := []extract.DimensionRow{{Code: "2023KW01", Title: "2023 1e kwartaal"}}

	table, err := NormalizePeriods(window, a, b)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	// Conflicting label for the same code is cube drift
	c := []extract.DimensionRow{{Code: "2023KW01", Title: "iets anders"}}
	_, err = NormalizePeriods(window, a, c)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateConflict))
}
