package store

import (
	"context"

	"gamesup-server/internal/models"
)

type settingRow struct {
	Key   string `db:"setting_key"`
	Value string `db:"setting_value"`
}

// GetSettings reads the whole settings map, filling in defaults for keys the
// store does not have yet.
func (s *Store) GetSettings(ctx context.Context) (map[string]string, error) {
	var rows []settingRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM settings"); err != nil {
		return nil, err
	}

	settings := make(map[string]string, len(rows)+len(models.SettingsDefaults))
	for k, v := range models.SettingsDefaults {
		settings[k] = v
	}
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return settings, nil
}

// UpsertSettings writes the given keys atomically.
func (s *Store) UpsertSettings(ctx context.Context, settings map[string]string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for key, value := range settings {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO settings (setting_key, setting_value) VALUES ($1, $2)
			ON CONFLICT (setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value`,
			key, value)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}
