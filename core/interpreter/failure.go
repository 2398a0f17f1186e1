package interpreter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"exoml-server/core/executor"
	"exoml-server/core/models"
)

const (
	errorTypeTimeout        = "TimeoutError"
	errorTypeModuleNotFound = "ModuleNotFoundError"
	errorTypeGeneric        = "ExecutionError"

	genericErrorMessage = "Notebook execution failed"

	// lines kept on each side of the matched error line
	tracebackContext = 3
	// characters of raw output kept when no error line is recognised
	rawOutputLimit = 500
)

var missingModulePattern = regexp.MustCompile(`No module named '([\w.]+)'`)

var (
	dependencyTroubleshooting = []string{
		"Install missing packages: pip install -r requirements.txt",
		"Verify all notebook dependencies are installed in the kernel environment",
		"Restart the backend after installing packages",
	}
	fileTroubleshooting = []string{
		"Verify the data files exist in the notebooks data directory",
		"Check that file paths are built with os.path.join() for cross-platform compatibility",
		"Ensure all required CSV files are present",
	}
	memoryTroubleshooting = []string{
		"Reduce dataset size or use sampling",
		"Increase the memory available to the backend",
		"Tune model parameters to reduce memory usage",
	}
	genericTroubleshooting = []string{
		"Review the traceback in error_details",
		"Check the notebook code for syntax errors",
		"Run the notebook locally to reproduce the failure",
		"Check the server logs for more details",
	}
)

// failureDetails classifies the output of a process that exited non-zero
func failureDetails(res executor.Result) models.ErrorDetails {
	output := res.Stderr
	if output == "" {
		output = res.Stdout
	}

	details := models.ErrorDetails{
		ErrorType:    errorTypeGeneric,
		ErrorMessage: genericErrorMessage,
	}

	lines := strings.Split(output, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}

	for i, line := range lines {
		if strings.Contains(line, "Error:") || strings.Contains(line, "Exception:") {
			errorType, message, _ := strings.Cut(line, ":")
			details.ErrorType = strings.TrimSpace(errorType)
			details.ErrorMessage = strings.TrimSpace(message)

			start := max(0, i-tracebackContext)
			end := min(len(lines), i+tracebackContext+1)
			details.Traceback = append([]string(nil), lines[start:end]...)
			break
		}
		if strings.Contains(line, "ModuleNotFoundError") || strings.Contains(line, "ImportError") {
			details.ErrorType = errorTypeModuleNotFound
			if match := missingModulePattern.FindStringSubmatch(line); match != nil {
				details.ErrorMessage = "Missing Python package: " + match[1]
			}
			break
		}
	}

	if len(details.Traceback) == 0 && output != "" {
		details.Traceback = []string{truncate(output, rawOutputLimit)}
	}
	return details
}

// troubleshootingFor returns the remediation hints for an error type
func troubleshootingFor(errorType string) []string {
	var hints []string
	switch {
	case strings.Contains(errorType, "ModuleNotFoundError") || strings.Contains(errorType, "ImportError"):
		hints = dependencyTroubleshooting
	case strings.Contains(errorType, "FileNotFoundError"):
		hints = fileTroubleshooting
	case strings.Contains(errorType, "MemoryError"):
		hints = memoryTroubleshooting
	default:
		hints = genericTroubleshooting
	}
	return append([]string(nil), hints...)
}

func timeoutDetails(limit time.Duration) models.ErrorDetails {
	return models.ErrorDetails{
		ErrorType:           errorTypeTimeout,
		ErrorMessage:        fmt.Sprintf("Execution time exceeded %ss limit", seconds(limit)),
		TimeoutLimitSeconds: limit.Seconds(),
	}
}

func timeoutTroubleshooting(limit time.Duration) []string {
	return []string{
		fmt.Sprintf("Increase NOTEBOOK_TIMEOUT (current: %ss)", seconds(limit)),
		"Reduce the dataset size the notebook trains on",
		"Run the backend on a machine with more CPU and memory",
		"Review cell execution times to identify bottlenecks",
		"Split the notebook into smaller notebooks",
	}
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

// truncate keeps the first n characters of s without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
