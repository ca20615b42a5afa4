package store

// The star schema is rebuilt from scratch on every load. Drops run in
// reverse dependency order so the foreign keys never dangle mid-rebuild.
var dropStatements = []string{
	`DROP TABLE IF EXISTS fact_doorlooptijden`,
	`DROP TABLE IF EXISTS fact_woningen_pijplijn`,
	`DROP TABLE IF EXISTS dim_regiokenmerken`,
	`DROP TABLE IF EXISTS dim_regios`,
	`DROP TABLE IF EXISTS dim_gebruiksfunctie`,
	`DROP TABLE IF EXISTS dim_woningtype`,
	`DROP TABLE IF EXISTS dim_perioden`,
}

var createStatements = []string{
	`CREATE TABLE dim_regiokenmerken (
		code TEXT PRIMARY KEY,
		naam TEXT NOT NULL,
		type TEXT
	)`,
	`CREATE TABLE dim_regios (
		code TEXT PRIMARY KEY,
		naam TEXT NOT NULL,
		provincie TEXT
	)`,
	`CREATE TABLE dim_gebruiksfunctie (
		code TEXT PRIMARY KEY,
		naam TEXT NOT NULL
	)`,
	`CREATE TABLE dim_woningtype (
		code TEXT PRIMARY KEY,
		naam TEXT NOT NULL
	)`,
	`CREATE TABLE dim_perioden (
		code TEXT PRIMARY KEY,
		naam TEXT NOT NULL,
		jaar INTEGER NOT NULL,
		kwartaal INTEGER,
		maand INTEGER
	)`,
	`CREATE TABLE fact_doorlooptijden (
		id TEXT PRIMARY KEY,
		regiokenmerk_code TEXT NOT NULL REFERENCES dim_regiokenmerken(code),
		gebruiksfunctie_code TEXT NOT NULL REFERENCES dim_gebruiksfunctie(code),
		woningtype_code TEXT NOT NULL REFERENCES dim_woningtype(code),
		periode_code TEXT NOT NULL REFERENCES dim_perioden(code),
		jaar INTEGER NOT NULL,
		kwartaal INTEGER NOT NULL,
		nieuwbouw_aantal INTEGER,
		doorlooptijd_p10 REAL,
		doorlooptijd_p25 REAL,
		doorlooptijd_mediaan REAL,
		doorlooptijd_p75 REAL,
		doorlooptijd_p90 REAL,
		doorlooptijd_gemiddelde REAL,
		doorlooptijd_iqr REAL,
		doorlooptijd_p10_p90_range REAL,
		doorlooptijd_cv REAL,
		hoge_variabiliteit INTEGER NOT NULL
	)`,
	`CREATE TABLE fact_woningen_pijplijn (
		id TEXT PRIMARY KEY,
		regio_code TEXT NOT NULL REFERENCES dim_regios(code),
		gebruiksfunctie_code TEXT NOT NULL REFERENCES dim_gebruiksfunctie(code),
		periode_code TEXT NOT NULL REFERENCES dim_perioden(code),
		jaar INTEGER NOT NULL,
		maand INTEGER NOT NULL,
		pijplijn_totaal INTEGER,
		pijplijn_bouw_gestart INTEGER,
		pijplijn_vergunning INTEGER,
		pijplijn_vast_2jaar INTEGER,
		pijplijn_bouw_gestart_2jaar INTEGER,
		pijplijn_vergunning_2jaar INTEGER,
		pijplijn_vast_5jaar INTEGER,
		pijplijn_bouw_gestart_5jaar INTEGER,
		pijplijn_vergunning_5jaar INTEGER,
		bottleneck_2jaar_pct REAL,
		bottleneck_5jaar_pct REAL,
		vergunning_bottleneck_pct REAL,
		bouw_bottleneck_pct REAL,
		vergunning_fase_pct REAL,
		bouw_fase_pct REAL,
		crisis_regio INTEGER NOT NULL
	)`,
}

// Built after the bulk insert.
var indexStatements = []string{
	`CREATE INDEX idx_doorlooptijden_jaar ON fact_doorlooptijden(jaar)`,
	`CREATE INDEX idx_doorlooptijden_regio ON fact_doorlooptijden(regiokenmerk_code)`,
	`CREATE INDEX idx_doorlooptijden_jaar_regio ON fact_doorlooptijden(jaar, regiokenmerk_code)`,
	`CREATE INDEX idx_pijplijn_jaar ON fact_woningen_pijplijn(jaar)`,
	`CREATE INDEX idx_pijplijn_regio ON fact_woningen_pijplijn(regio_code)`,
	`CREATE INDEX idx_pijplijn_jaar_regio ON fact_woningen_pijplijn(jaar, regio_code)`,
}

const (
	insertDimensie = `INSERT INTO %s (code, naam) VALUES (?, ?)`

	insertRegiokenmerk = `INSERT INTO dim_regiokenmerken (code, naam, type) VALUES (?, ?, ?)`

	insertRegio = `INSERT INTO dim_regios (code, naam, provincie) VALUES (?, ?, ?)`

	insertPeriode = `INSERT INTO dim_perioden (code, naam, jaar, kwartaal, maand) VALUES (?, ?, ?, ?, ?)`

	insertDoorlooptijd = `INSERT INTO fact_doorlooptijden (
		id, regiokenmerk_code, gebruiksfunctie_code, woningtype_code, periode_code,
		jaar, kwartaal, nieuwbouw_aantal,
		doorlooptijd_p10, doorlooptijd_p25, doorlooptijd_mediaan, doorlooptijd_p75, doorlooptijd_p90,
		doorlooptijd_gemiddelde, doorlooptijd_iqr, doorlooptijd_p10_p90_range, doorlooptijd_cv,
		hoge_variabiliteit
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertPijplijn = `INSERT INTO fact_woningen_pijplijn (
		id, regio_code, gebruiksfunctie_code, periode_code,
		jaar, maand,
		pijplijn_totaal, pijplijn_bouw_gestart, pijplijn_vergunning,
		pijplijn_vast_2jaar, pijplijn_bouw_gestart_2jaar, pijplijn_vergunning_2jaar, pijplijn_vast_5jaar,
		pijplijn_bouw_gestart_5jaar, pijplijn_vergunning_5jaar,
		bottleneck_2jaar_pct, bottleneck_5jaar_pct, vergunning_bottleneck_pct, bouw_bottleneck_pct,
		vergunning_fase_pct, bouw_fase_pct,
		crisis_regio
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)
