package benchmark

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"atscore/internal/types"

	_ "modernc.org/sqlite" // SQLite driver
)

// LoadSQLite reads profiles from a benchmark_profiles(id, payload) table.
// payload holds one profile as JSON; the id column wins over any id in it.
// The database is opened read-only.
func LoadSQLite(ctx context.Context, path string) ([]types.BenchmarkProfile, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening benchmark database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT id, payload FROM benchmark_profiles ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying benchmark profiles: %w", err)
	}
	defer rows.Close()

	var profiles []types.BenchmarkProfile
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scanning benchmark profile: %w", err)
		}
		var p types.BenchmarkProfile
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return nil, fmt.Errorf("decoding benchmark profile %s: %w", id, err)
		}
		p.ID = id
		p.Found = false
		p.Confidence = 0
		if err := validateProfile(p); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating benchmark profiles: %w", err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("benchmark database %s has no profiles", path)
	}
	return profiles, nil
}
