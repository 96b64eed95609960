package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

// LogFilePath names the log file for one CLI session, e.g.
// markershare-logs/markershare.20260212_213836.log.
func LogFilePath(logsDir, appName string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", appName, sessionStart.Format("20060102_150405")),
	)
}
