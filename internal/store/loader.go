package store

import (
	"context"
	"database/sql"
	"fmt"

	"woonstat/internal/transform"
	"woonstat/pkg/errors"
)

// LoadSet is everything one run writes to the store.
type LoadSet struct {
	Regiokenmerken  *transform.Table
	Regios          *transform.Table
	Gebruiksfunctie *transform.Table
	Woningtype      *transform.Table
	Perioden        *transform.PeriodTable
	Doorlooptijden  []transform.LeadTimeFact
	Pijplijn        []transform.PipelineFact
}

// Counts maps table name to the number of rows written.
type Counts map[string]int

// Loader rebuilds the star schema inside a single transaction. A failed
// load rolls back and leaves whatever was in the store before untouched.
type Loader struct {
	db *sql.DB
}

// NewLoader creates a loader on an open store handle.
func NewLoader(db *sql.DB) *Loader {
	return &Loader{db: db}
}

// Load drops and recreates all tables, writes dimensions before facts,
// and builds the indexes last. Commit is the only point where the store
// changes for readers.
func (l *Loader) Load(ctx context.Context, set LoadSet) (Counts, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreTransaction, "Failed to begin load transaction")
	}

	counts, err := l.loadTx(ctx, tx, set)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreTransaction, "Failed to commit load transaction")
	}
	return counts, nil
}

func (l *Loader) loadTx(ctx context.Context, tx *sql.Tx, set LoadSet) (Counts, error) {
	for _, stmt := range dropStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, errors.StoreError("Failed to drop table", stmt, err)
		}
	}
	for _, stmt := range createStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, errors.StoreError("Failed to create table", stmt, err)
		}
	}

	counts := Counts{}

	n, err := l.insertAttributed(ctx, tx, insertRegiokenmerk, set.Regiokenmerken)
	if err != nil {
		return nil, err
	}
	counts["dim_regiokenmerken"] = n

	n, err = l.insertAttributed(ctx, tx, insertRegio, set.Regios)
	if err != nil {
		return nil, err
	}
	counts["dim_regios"] = n

	n, err = l.insertDimension(ctx, tx, "dim_gebruiksfunctie", set.Gebruiksfunctie)
	if err != nil {
		return nil, err
	}
	counts["dim_gebruiksfunctie"] = n

	n, err = l.insertDimension(ctx, tx, "dim_woningtype", set.Woningtype)
	if err != nil {
		return nil, err
	}
	counts["dim_woningtype"] = n

	n, err = l.insertPerioden(ctx, tx, set.Perioden)
	if err != nil {
		return nil, err
	}
	counts["dim_perioden"] = n

	n, err = l.insertDoorlooptijden(ctx, tx, set.Doorlooptijden)
	if err != nil {
		return nil, err
	}
	counts["fact_doorlooptijden"] = n

	n, err = l.insertPijplijn(ctx, tx, set.Pijplijn)
	if err != nil {
		return nil, err
	}
	counts["fact_woningen_pijplijn"] = n

	for _, stmt := range indexStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, errors.StoreError("Failed to create index", stmt, err)
		}
	}

	return counts, nil
}

func (l *Loader) insertDimension(ctx context.Context, tx *sql.Tx, table string, dim *transform.Table) (int, error) {
	query := fmt.Sprintf(insertDimensie, table)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, errors.StoreError("Failed to prepare dimension insert", query, err)
	}
	defer stmt.Close()

	for _, row := range dim.Rows {
		if _, err := stmt.ExecContext(ctx, row.Code, row.Label); err != nil {
			return 0, errors.StoreError("Failed to insert dimension row", query, err).
				WithContext("table", table).
				WithContext("code", row.Code)
		}
	}
	return dim.Len(), nil
}

// insertAttributed writes a dimension whose third column is optional
// (province for regions, grouping type for region traits).
func (l *Loader) insertAttributed(ctx context.Context, tx *sql.Tx, query string, dim *transform.Table) (int, error) {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, errors.StoreError("Failed to prepare dimension insert", query, err)
	}
	defer stmt.Close()

	for _, row := range dim.Rows {
		attr := sql.NullString{String: row.Parent, Valid: row.Parent != ""}
		if _, err := stmt.ExecContext(ctx, row.Code, row.Label, attr); err != nil {
			return 0, errors.StoreError("Failed to insert dimension row", query, err).
				WithContext("code", row.Code)
		}
	}
	return dim.Len(), nil
}

func (l *Loader) insertPerioden(ctx context.Context, tx *sql.Tx, dim *transform.PeriodTable) (int, error) {
	stmt, err := tx.PrepareContext(ctx, insertPeriode)
	if err != nil {
		return 0, errors.StoreError("Failed to prepare period insert", insertPeriode, err)
	}
	defer stmt.Close()

	for _, p := range dim.Rows {
		if _, err := stmt.ExecContext(ctx, p.Code, p.Naam, p.Jaar, p.Kwartaal, p.Maand); err != nil {
			return 0, errors.StoreError("Failed to insert period row", insertPeriode, err).
				WithContext("code", p.Code)
		}
	}
	return dim.Len(), nil
}

func (l *Loader) insertDoorlooptijden(ctx context.Context, tx *sql.Tx, facts []transform.LeadTimeFact) (int, error) {
	stmt, err := tx.PrepareContext(ctx, insertDoorlooptijd)
	if err != nil {
		return 0, errors.StoreError("Failed to prepare lead time insert", insertDoorlooptijd, err)
	}
	defer stmt.Close()

	for _, f := range facts {
		_, err := stmt.ExecContext(ctx,
			f.ID, f.RegiokenmerkCode, f.GebruiksfunctieCode, f.WoningtypeCode, f.PeriodeCode,
			f.Jaar, f.Kwartaal, f.NieuwbouwAantal,
			f.P10, f.P25, f.Mediaan, f.P75, f.P90,
			f.Gemiddelde, f.IQR, f.P10P90Range, f.CV,
			f.HogeVariabiliteit,
		)
		if err != nil {
			return 0, errors.StoreError("Failed to insert lead time row", insertDoorlooptijd, err).
				WithContext("row_id", f.ID)
		}
	}
	return len(facts), nil
}

func (l *Loader) insertPijplijn(ctx context.Context, tx *sql.Tx, facts []transform.PipelineFact) (int, error) {
	stmt, err := tx.PrepareContext(ctx, insertPijplijn)
	if err != nil {
		return 0, errors.StoreError("Failed to prepare pipeline insert", insertPijplijn, err)
	}
	defer stmt.Close()

	for _, f := range facts {
		_, err := stmt.ExecContext(ctx,
			f.ID, f.RegioCode, f.GebruiksfunctieCode, f.PeriodeCode,
			f.Jaar, f.Maand,
			f.Totaal, f.BouwGestart, f.Vergunning,
			f.Vast2Jaar, f.BouwGestart2Jaar, f.Vergunning2Jaar, f.Vast5Jaar,
			f.BouwGestart5Jaar, f.Vergunning5Jaar,
			f.Bottleneck2JaarPct, f.Bottleneck5JaarPct, f.VergunningBottleneckPct, f.BouwBottleneckPct,
			f.VergunningFasePct, f.BouwFasePct,
			f.CrisisRegio,
		)
		if err != nil {
			return 0, errors.StoreError("Failed to insert pipeline row", insertPijplijn, err).
				WithContext("row_id", f.ID)
		}
	}
	return len(facts), nil
}
