package fixture

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects placeholder syntax and driver.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) driver() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// bind rewrites ? placeholders for the dialect.
func (d Dialect) bind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const schema = `
CREATE TABLE IF NOT EXISTS stadiums (
	code       TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	short_name TEXT NOT NULL,
	city       TEXT NOT NULL,
	venue      TEXT NOT NULL,
	lat        DOUBLE PRECISION NOT NULL,
	lon        DOUBLE PRECISION NOT NULL
);
CREATE TABLE IF NOT EXISTS trips (
	team        TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	kind        TEXT NOT NULL,
	origin      TEXT NOT NULL DEFAULT '',
	destination TEXT NOT NULL DEFAULT '',
	rival       TEXT NOT NULL DEFAULT '',
	round       INTEGER NOT NULL,
	round_label TEXT NOT NULL,
	competition TEXT NOT NULL,
	distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
	outcome     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (team, seq)
);
`

// ParseSQLSource splits a sqlite:// or postgres:// source into dialect and driver DSN.
func ParseSQLSource(src string) (Dialect, string, bool) {
	switch {
	case strings.HasPrefix(src, "sqlite://"):
		return DialectSQLite, strings.TrimPrefix(src, "sqlite://"), true
	case strings.HasPrefix(src, "postgres://"), strings.HasPrefix(src, "postgresql://"):
		return DialectPostgres, src, true
	default:
		return 0, "", false
	}
}

// OpenSQL opens and pings a database for the dialect.
func OpenSQL(ctx context.Context, d Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(d.driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// LoadSQL reads the stadium table and every itinerary.
func LoadSQL(ctx context.Context, db *sql.DB) (*Dataset, error) {
	stadiums, err := loadStadiumsSQL(ctx, db)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT team, kind, origin, destination, rival, round, round_label, competition, distance_km, outcome
		FROM trips
		ORDER BY team, seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	trips := make(map[string][]Event)
	for rows.Next() {
		var team string
		var r wireTrip
		if err := rows.Scan(&team, &r.Tipo, &r.Desde, &r.Hacia, &r.Rival,
			&r.FechaNum, &r.Fecha, &r.Torneo, &r.DistanciaKm, &r.Resultado); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		ev, err := eventFromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("team %s: %v: %w", team, err, ErrDatasetMalformed)
		}
		trips[team] = append(trips[team], ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trips: %w", err)
	}
	if len(trips) == 0 {
		return nil, fmt.Errorf("trips table is empty: %w", ErrDatasetMissing)
	}

	return NewDataset(stadiums, trips), nil
}

func loadStadiumsSQL(ctx context.Context, db *sql.DB) (map[string]Stadium, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT code, name, short_name, city, venue, lat, lon
		FROM stadiums
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stadiums: %w", err)
	}
	defer rows.Close()

	stadiums := make(map[string]Stadium)
	for rows.Next() {
		var s Stadium
		if err := rows.Scan(&s.Code, &s.Name, &s.ShortName, &s.City, &s.Venue, &s.Lat, &s.Lon); err != nil {
			return nil, fmt.Errorf("failed to scan stadium: %w", err)
		}
		stadiums[s.Code] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stadiums: %w", err)
	}
	return stadiums, nil
}

// WriteSQL creates the schema and replaces its contents with ds in one transaction.
func WriteSQL(ctx context.Context, db *sql.DB, d Dialect, ds *Dataset) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM trips", "DELETE FROM stadiums"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear tables: %w", err)
		}
	}

	insStadium := d.bind(`INSERT INTO stadiums (code, name, short_name, city, venue, lat, lon) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, s := range ds.Stadiums {
		if _, err := tx.ExecContext(ctx, insStadium, s.Code, s.Name, s.ShortName, s.City, s.Venue, s.Lat, s.Lon); err != nil {
			return fmt.Errorf("failed to insert stadium %s: %w", s.Code, err)
		}
	}

	insTrip := d.bind(`INSERT INTO trips (team, seq, kind, origin, destination, rival, round, round_label, competition, distance_km, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, team := range ds.Teams() {
		for seq, ev := range ds.itineraries[team] {
			r := recordFromEvent(ev)
			if _, err := tx.ExecContext(ctx, insTrip, team, seq, r.Tipo, r.Desde, r.Hacia, r.Rival,
				r.FechaNum, r.Fecha, r.Torneo, r.DistanciaKm, r.Resultado); err != nil {
				return fmt.Errorf("failed to insert trip %s/%d: %w", team, seq, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
