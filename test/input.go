package test

import (
	"bytes"
	"os"

	"github.com/relex/gotils/logger"
)

// loadInput loads a sample text log and returns (whole data, non-empty lines)
func loadInput(inputPath string) ([]byte, [][]byte) {
	inputData, err := os.ReadFile(inputPath)
	if err != nil {
		logger.Fatalf("failed to read %s: %s", inputPath, err.Error())
	}
	if len(inputData) > 0 && inputData[len(inputData)-1] != '\n' {
		inputData = append(inputData, '\n')
	}
	lines := make([][]byte, 0, len(inputData)/100)
	for _, ln := range bytes.Split(inputData, []byte("\n")) {
		if len(bytes.TrimSpace(ln)) > 0 {
			lines = append(lines, ln)
		}
	}
	return inputData, lines
}
