package logger

// Component-specific logger functions

// Schema returns a logger for catalog and DDL operations
func Schema() Logger {
	return WithField("component", "schema")
}

// Store returns a logger for domain store operations
func Store() Logger {
	return WithField("component", "store")
}

// Migration returns a logger for migration operations
func Migration() Logger {
	return WithField("component", "migration")
}

// Atlas returns a logger for Atlas operations
func Atlas() Logger {
	return WithField("component", "atlas")
}

// CLI returns a logger for CLI operations
func CLI() Logger {
	return WithField("component", "cli")
}

// DB returns a logger for database operations
func DB() Logger {
	return WithField("component", "db")
}

// Import returns a logger for catalog import operations
func Import() Logger {
	return WithField("component", "import")
}
