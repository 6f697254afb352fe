// Package version хранит сборочную информацию, проставляемую через -ldflags.
package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Version возвращает версию сборки.
func Version() string { return version }

// String возвращает однострочное описание сборки для логов и --version.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}
