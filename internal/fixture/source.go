package fixture

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/litescript/ls-awaydays/internal/logging"
)

//go:embed data/trips.json
var embeddedTrips []byte

//go:embed data/stadiums.json
var embeddedStadiums []byte

// Source names where the trips and stadium resources come from. Each may be empty
// (embedded copy), a file path, an http(s) URL, or a sqlite:// / postgres:// DSN.
// A SQL trips source also supplies the stadiums unless Stadiums is set.
type Source struct {
	Trips      string
	Stadiums   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Log        *logging.Logger
}

// Embedded loads the dataset bundled with the binary.
func Embedded() (*Dataset, error) {
	return Load(context.Background(), Source{})
}

// Load resolves both resources and builds a dataset.
func Load(ctx context.Context, src Source) (*Dataset, error) {
	log := src.Log
	if log == nil {
		log = logging.Discard()
	}

	if d, dsn, ok := ParseSQLSource(src.Trips); ok {
		log.Info("loading dataset from %s database", d.driver())
		db, err := OpenSQL(ctx, d, dsn)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrDatasetMissing)
		}
		defer db.Close()

		ds, err := LoadSQL(ctx, db)
		if err != nil {
			return nil, err
		}
		if src.Stadiums != "" {
			raw, err := src.read(ctx, src.Stadiums, embeddedStadiums)
			if err != nil {
				return nil, err
			}
			if ds.Stadiums, err = DecodeStadiums(bytes.NewReader(raw)); err != nil {
				return nil, err
			}
		}
		return ds, nil
	}

	rawTrips, err := src.read(ctx, src.Trips, embeddedTrips)
	if err != nil {
		return nil, err
	}
	trips, err := DecodeTrips(bytes.NewReader(rawTrips))
	if err != nil {
		return nil, err
	}

	rawStadiums, err := src.read(ctx, src.Stadiums, embeddedStadiums)
	if err != nil {
		return nil, err
	}
	stadiums, err := DecodeStadiums(bytes.NewReader(rawStadiums))
	if err != nil {
		return nil, err
	}

	log.Info("loaded %d teams and %d stadiums", len(trips), len(stadiums))
	ds := NewDataset(stadiums, trips)
	if log.Enabled(logging.LevelDebug) {
		for _, code := range ds.Teams() {
			if it, err := ds.Team(code); err == nil {
				log.Debug("team %s: %d events, %.0f km", code, it.Len(), it.TotalDistanceKm())
			}
		}
	}
	return ds, nil
}

func (src Source) read(ctx context.Context, location string, fallback []byte) ([]byte, error) {
	switch {
	case location == "":
		return fallback, nil
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		opts := []FetcherOption{WithURL(location)}
		if src.Timeout > 0 {
			opts = append(opts, WithTimeout(src.Timeout))
		}
		if src.HTTPClient != nil {
			opts = append(opts, WithHTTPClient(src.HTTPClient))
		}
		f := NewFetcher(opts...)
		if src.Log != nil {
			src.Log.Debug("fetching %s", f.URL())
		}
		return f.Fetch(ctx)
	default:
		raw, err := os.ReadFile(location)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", location, ErrDatasetMissing)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", location, err)
		}
		return raw, nil
	}
}
