package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"woonstat/internal/extract"
	"woonstat/internal/transform"
	"woonstat/pkg/errors"
	"woonstat/pkg/models"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int64) *int64     { return &v }

func testLoadSet(t *testing.T) LoadSet {
	t.Helper()

	regiokenmerken, err := transform.Normalize("regiokenmerken", []extract.DimensionRow{
		{Code: "NL01", Title: "Nederland"},
	})
	require.NoError(t, err)
	regios, err := transform.Normalize("regios", []extract.DimensionRow{
		{Code: "GM0363", Title: "Amsterdam", Parent: "PV27"},
	})
	require.NoError(t, err)
	functie, err := transform.Normalize("gebruiksfunctie", []extract.DimensionRow{
		{Code: "A045364", Title: "Woningen"},
	})
	require.NoError(t, err)
	wtype, err := transform.Normalize("woningtype", []extract.DimensionRow{
		{Code: "T001100", Title: "Totaal"},
	})
	require.NoError(t, err)
	perioden, err := transform.NormalizePeriods(models.Window{StartYear: 2015, EndYear: 2024},
		[]extract.DimensionRow{{Code: "2023KW01", Title: "2023 1e kwartaal"}},
		[]extract.DimensionRow{{Code: "2023MM07", Title: "2023 juli"}},
	)
	require.NoError(t, err)

	return LoadSet{
		Regiokenmerken:  regiokenmerken,
		Regios:          regios,
		Gebruiksfunctie: functie,
		Woningtype:      wtype,
		Perioden:        perioden,
		Doorlooptijden: []transform.LeadTimeFact{{
			ID:                  "1",
			RegiokenmerkCode:    "NL01",
			GebruiksfunctieCode: "A045364",
			WoningtypeCode:      "T001100",
			PeriodeCode:         "2023KW01",
			Jaar:                2023,
			Kwartaal:            1,
			NieuwbouwAantal:     iptr(1000),
			Mediaan:             fptr(8),
			IQR:                 fptr(7),
		}},
		Pijplijn: []transform.PipelineFact{{
			ID:                  "1",
			RegioCode:           "GM0363",
			GebruiksfunctieCode: "A045364",
			PeriodeCode:         "2023MM07",
			Jaar:                2023,
			Maand:               7,
			Totaal:              iptr(1000),
			Vast2Jaar:           iptr(50),
			Bottleneck2JaarPct:  fptr(5),
		}},
	}
}

func expectSchemaRebuild(mock sqlmock.Sqlmock) {
	for _, table := range []string{
		"fact_doorlooptijden", "fact_woningen_pijplijn",
		"dim_regiokenmerken", "dim_regios", "dim_gebruiksfunctie", "dim_woningtype", "dim_perioden",
	} {
		mock.ExpectExec("DROP TABLE IF EXISTS " + table).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	for _, table := range []string{
		"dim_regiokenmerken", "dim_regios", "dim_gebruiksfunctie", "dim_woningtype", "dim_perioden",
		"fact_doorlooptijden", "fact_woningen_pijplijn",
	} {
		mock.ExpectExec("CREATE TABLE " + table).WillReturnResult(sqlmock.NewResult(0, 0))
	}
}

func TestLoaderLoad(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	expectSchemaRebuild(mock)

	for _, table := range []string{
		"dim_regiokenmerken", "dim_regios", "dim_gebruiksfunctie", "dim_woningtype", "dim_perioden",
	} {
		prep := mock.ExpectPrepare("INSERT INTO " + table)
		prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	}
	leadPrep := mock.ExpectPrepare("INSERT INTO fact_doorlooptijden")
	leadPrep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	pipePrep := mock.ExpectPrepare("INSERT INTO fact_woningen_pijplijn")
	pipePrep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))

	for i := 0; i < 6; i++ {
		mock.ExpectExec("CREATE INDEX").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	set := testLoadSet(t)
	// Drop one period so every dimension writes exactly one row
	set.Perioden, err = transform.NormalizePeriods(models.Window{StartYear: 2015, EndYear: 2024},
		[]extract.DimensionRow{{Code: "2023KW01", Title: "2023 1e kwartaal"}})
	require.NoError(t, err)

	counts, err := NewLoader(db).Load(context.Background(), set)
	require.NoError(t, err)

	assert.Equal(t, 1, counts["dim_regiokenmerken"])
	assert.Equal(t, 1, counts["dim_regios"])
	assert.Equal(t, 1, counts["dim_perioden"])
	assert.Equal(t, 1, counts["fact_doorlooptijden"])
	assert.Equal(t, 1, counts["fact_woningen_pijplijn"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderRollbackOnDropError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE IF EXISTS fact_doorlooptijden").
		WillReturnError(fmt.Errorf("database is locked"))
	mock.ExpectRollback()

	_, err = NewLoader(db).Load(context.Background(), testLoadSet(t))

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStoreExecution))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderRollbackOnInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	expectSchemaRebuild(mock)
	prep := mock.ExpectPrepare("INSERT INTO dim_regiokenmerken")
	prep.ExpectExec().WillReturnError(fmt.Errorf("constraint failed"))
	mock.ExpectRollback()

	_, err = NewLoader(db).Load(context.Background(), testLoadSet(t))

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStoreExecution))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoaderBeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(fmt.Errorf("store gone"))

	_, err = NewLoader(db).Load(context.Background(), testLoadSet(t))

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStoreTransaction))
	assert.NoError(t, mock.ExpectationsWereMet())
}
