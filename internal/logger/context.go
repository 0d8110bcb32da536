package logger

// Component-specific logger functions

// Store returns a logger for store adapter operations
func Store() Logger {
	return WithField("component", "store")
}

// Service returns a logger for service-layer operations
func Service() Logger {
	return WithField("component", "service")
}

// CLI returns a logger for CLI operations
func CLI() Logger {
	return WithField("component", "cli")
}
