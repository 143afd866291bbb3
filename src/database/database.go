package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/tadawulboard/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateExtractionColumnsTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS extraction_columns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT NOT NULL UNIQUE,
		data TEXT NOT NULL,
		screenshot_path TEXT DEFAULT '',
		extraction_error TEXT DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS corrections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_symbol TEXT NOT NULL,
		correct_value TEXT NOT NULL,
		feedback TEXT DEFAULT '',
		applied_fields TEXT DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// migrateExtractionColumnsTable adds columns that older database files are
// missing. The table itself is created above if absent.
func migrateExtractionColumnsTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='extraction_columns'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'extraction_columns' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'extraction_columns' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(extraction_columns)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'extraction_columns'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'extraction_columns': %v", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'extraction_columns'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'extraction_columns': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'extraction_columns'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'extraction_columns': %v", err)
		}
		return
	}

	if _, ok := columnExists["screenshot_path"]; !ok {
		_, err := DB.Exec("ALTER TABLE extraction_columns ADD COLUMN screenshot_path TEXT DEFAULT ''")
		if err != nil {
			logger.L.Error("Error adding 'screenshot_path' column to 'extraction_columns' table", "error", err)
		} else {
			logger.L.Info("Added 'screenshot_path' column to 'extraction_columns' table")
		}
	}
	if _, ok := columnExists["extraction_error"]; !ok {
		_, err := DB.Exec("ALTER TABLE extraction_columns ADD COLUMN extraction_error TEXT DEFAULT ''")
		if err != nil {
			logger.L.Error("Error adding 'extraction_error' column to 'extraction_columns' table", "error", err)
		} else {
			logger.L.Info("Added 'extraction_error' column to 'extraction_columns' table")
		}
	}
}
