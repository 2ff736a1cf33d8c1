package config

import (
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"
)

const settingsSchema = `
	CREATE TABLE IF NOT EXISTS settings (
		section TEXT NOT NULL,
		key     TEXT NOT NULL,
		value   TEXT NOT NULL,
		PRIMARY KEY (section, key)
	)
`

// SQLiteProvider implements ConfigProvider for SQLite database configuration.
// Every setting is one (section, key, value) row; absent rows are left for
// ApplyDefaults.
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens dbPath, creating the settings table if needed
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(settingsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from the database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	rows, err := s.db.Query(`SELECT section, key, value FROM settings ORDER BY section, key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	config := &ConfigData{}
	for rows.Next() {
		var section, key, value string
		if err := rows.Scan(&section, &key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting row: %w", err)
		}
		st, ok := lookupSetting(section, key)
		if !ok {
			return nil, fmt.Errorf("unknown setting %s.%s", section, key)
		}
		if err := st.set(config, value); err != nil {
			return nil, fmt.Errorf("invalid value for %s.%s: %w", section, key, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	return config, nil
}

// GetDisplay returns the display section
func (s *SQLiteProvider) GetDisplay() (*DisplayData, error) {
	c, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &c.Display, nil
}

// GetCompanion returns the companion section
func (s *SQLiteProvider) GetCompanion() (*CompanionData, error) {
	c, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &c.Companion, nil
}

// GetHost returns the host section
func (s *SQLiteProvider) GetHost() (*HostData, error) {
	c, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &c.Host, nil
}

// IsReadOnly returns false since SQLite configuration can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig replaces every stored setting with the non-empty values of
// configData
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM settings`); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO settings (section, key, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, st := range settings {
		value := st.get(configData)
		if value == "" {
			continue
		}
		if _, err := stmt.Exec(st.section, st.key, value); err != nil {
			return fmt.Errorf("failed to save %s.%s: %w", st.section, st.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SetValue stores one setting after checking that value parses.
func (s *SQLiteProvider) SetValue(section, key, value string) error {
	st, ok := lookupSetting(section, key)
	if !ok {
		return fmt.Errorf("unknown setting %s.%s", section, key)
	}
	if err := st.set(&ConfigData{}, value); err != nil {
		return fmt.Errorf("invalid value for %s.%s: %w", section, key, err)
	}

	_, err := s.db.Exec(`
		INSERT INTO settings (section, key, value) VALUES (?, ?, ?)
		ON CONFLICT (section, key) DO UPDATE SET value = excluded.value
	`, section, key, value)
	if err != nil {
		return fmt.Errorf("failed to save %s.%s: %w", section, key, err)
	}
	return nil
}

// DeleteValue removes a setting so its default applies again.
func (s *SQLiteProvider) DeleteValue(section, key string) error {
	if _, err := s.db.Exec(`DELETE FROM settings WHERE section = ? AND key = ?`, section, key); err != nil {
		return fmt.Errorf("failed to delete %s.%s: %w", section, key, err)
	}
	return nil
}

// setting binds one stored row to a ConfigData field.
type setting struct {
	section string
	key     string
	get     func(*ConfigData) string
	set     func(*ConfigData, string) error
}

func stringSetting(section, key string, field func(*ConfigData) *string) setting {
	return setting{
		section: section,
		key:     key,
		get:     func(c *ConfigData) string { return *field(c) },
		set: func(c *ConfigData, v string) error {
			*field(c) = v
			return nil
		},
	}
}

func intSetting(section, key string, field func(*ConfigData) *int) setting {
	return setting{
		section: section,
		key:     key,
		get: func(c *ConfigData) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.Itoa(*field(c))
		},
		set: func(c *ConfigData, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			*field(c) = n
			return nil
		},
	}
}

func boolSetting(section, key string, field func(*ConfigData) *bool) setting {
	return setting{
		section: section,
		key:     key,
		get: func(c *ConfigData) string {
			if !*field(c) {
				return ""
			}
			return "true"
		},
		set: func(c *ConfigData, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			*field(c) = b
			return nil
		},
	}
}

// Keys match the YAML names.
var settings = []setting{
	stringSetting("display", "backend", func(c *ConfigData) *string { return &c.Display.Backend }),
	stringSetting("display", "i2c-bus", func(c *ConfigData) *string { return &c.Display.I2CBus }),
	stringSetting("display", "spi-port", func(c *ConfigData) *string { return &c.Display.SPIPort }),
	intSetting("display", "width", func(c *ConfigData) *int { return &c.Display.Width }),
	intSetting("display", "height", func(c *ConfigData) *int { return &c.Display.Height }),
	stringSetting("display", "path", func(c *ConfigData) *string { return &c.Display.Path }),
	boolSetting("display", "round", func(c *ConfigData) *bool { return &c.Display.Round }),
	intSetting("display", "chin-height", func(c *ConfigData) *int { return &c.Display.ChinHeight }),
	boolSetting("display", "low-bit-ambient", func(c *ConfigData) *bool { return &c.Display.LowBitAmbient }),
	stringSetting("display", "tick-period", func(c *ConfigData) *string { return &c.Display.TickPeriod }),
	stringSetting("display", "date-layout", func(c *ConfigData) *string { return &c.Display.DateLayout }),

	stringSetting("theme", "background", func(c *ConfigData) *string { return &c.Theme.Background }),
	stringSetting("theme", "text", func(c *ConfigData) *string { return &c.Theme.Text }),
	stringSetting("theme", "secondary", func(c *ConfigData) *string { return &c.Theme.Secondary }),
	stringSetting("theme", "divider", func(c *ConfigData) *string { return &c.Theme.Divider }),

	stringSetting("companion", "transport", func(c *ConfigData) *string { return &c.Companion.Transport }),
	stringSetting("companion", "address", func(c *ConfigData) *string { return &c.Companion.Address }),
	stringSetting("companion", "listen-addr", func(c *ConfigData) *string { return &c.Companion.ListenAddr }),
	stringSetting("companion", "retry-interval", func(c *ConfigData) *string { return &c.Companion.RetryInterval }),
	stringSetting("companion", "read-timeout", func(c *ConfigData) *string { return &c.Companion.ReadTimeout }),

	stringSetting("host", "listen-addr", func(c *ConfigData) *string { return &c.Host.ListenAddr }),
	intSetting("host", "port", func(c *ConfigData) *int { return &c.Host.Port }),
	boolSetting("host", "disabled", func(c *ConfigData) *bool { return &c.Host.Disabled }),
	stringSetting("host", "tap-pin", func(c *ConfigData) *string { return &c.Host.TapPin }),

	stringSetting("clock", "timezone", func(c *ConfigData) *string { return &c.Clock.Timezone }),
}

func lookupSetting(section, key string) (setting, bool) {
	for _, st := range settings {
		if st.section == section && st.key == key {
			return st, true
		}
	}
	return setting{}, false
}
