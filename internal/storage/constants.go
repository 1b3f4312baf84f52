package db

import "time"

// Connection retry while the database starts up.
const (
	maxConnectionAttempts = 10
	connectionRetryDelay  = 2 * time.Second
)

// PostgreSQL table names.
const (
	tableFaculty = "faculty"
	tableOutputs = "research_outputs"
)
