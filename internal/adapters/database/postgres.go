package database

import (
	"fmt"

	"github.com/Amund211/videofeed/internal/config"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const DB_NAME = "videofeed"

const LOCAL_CONNECTION_STRING = "user=postgres password=postgres dbname=videofeed sslmode=disable"

const MAIN_SCHEMA = "videofeed"
const TESTING_SCHEMA = "videofeed_test"

func GetSchemaName(isTesting bool) string {
	if isTesting {
		return TESTING_SCHEMA
	}
	return MAIN_SCHEMA
}

// Connection string for a Cloud SQL instance reached through its unix socket directory
func GetCloudSQLConnectionString(username, password, unixSocketPath string) string {
	return fmt.Sprintf(
		"user=%s password=%s database=%s host=%s",
		quoteConnectionValue(username),
		quoteConnectionValue(password),
		DB_NAME,
		quoteConnectionValue(unixSocketPath),
	)
}

// Quote a value for a libpq key=value connection string
func quoteConnectionValue(value string) string {
	var quoted []byte
	quoted = append(quoted, '\'')
	for i := range len(value) {
		if value[i] == '\'' || value[i] == '\\' {
			quoted = append(quoted, '\\')
		}
		quoted = append(quoted, value[i])
	}
	return string(append(quoted, '\''))
}

func NewPostgresDatabase(connectionString string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	err = createDatabaseIfNotExists(db, DB_NAME)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	return db, nil
}

func NewCloudsqlPostgresDatabase(conf config.Config) (*sqlx.DB, error) {
	connectionString := LOCAL_CONNECTION_STRING
	if !conf.IsDevelopment() {
		connectionString = GetCloudSQLConnectionString(conf.DBUsername(), conf.DBPassword(), conf.CloudSQLUnixSocketPath())
	}

	db, err := NewPostgresDatabase(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres database: %w", err)
	}

	return db, nil
}

func createDatabaseIfNotExists(db *sqlx.DB, dbName string) error {
	var count int
	err := db.Get(&count, "SELECT COUNT(*) FROM pg_database WHERE datname = $1", dbName)
	if err != nil {
		return fmt.Errorf("createDB: failed to check if database exists: %w", err)
	}

	if count > 0 {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName)))
	if err != nil {
		return fmt.Errorf("createDB: failed to create database: %w", err)
	}

	return nil
}
