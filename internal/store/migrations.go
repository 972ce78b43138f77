package store

type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations are applied in order; never edit a released entry.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create history",
		SQL: `
			CREATE TABLE history (
				seq         INTEGER PRIMARY KEY AUTOINCREMENT,
				id          TEXT NOT NULL,
				line        TEXT NOT NULL,
				command     TEXT NOT NULL DEFAULT '',
				status      TEXT NOT NULL,
				message     TEXT NOT NULL DEFAULT '',
				duration_us INTEGER NOT NULL DEFAULT 0,
				source      TEXT NOT NULL DEFAULT '',
				created_at  TEXT NOT NULL
			);

			CREATE INDEX idx_history_command ON history (command);
		`,
	},
}
