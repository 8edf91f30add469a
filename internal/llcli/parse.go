package llcli

import (
	"bytes"
	"regexp"
	"strconv"
)

var progressPattern = regexp.MustCompile(`(\d{1,3})(?:\.\d+)?\s*%`)

// parseProgress extracts a percentage from an installer output line.
// ll-cli prints lines like "Downloading 45%" and "2.1MB/10MB 21%".
func parseProgress(line string) (int, bool) {
	match := progressPattern.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	percent, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	if percent > 100 {
		percent = 100
	}
	return percent, true
}

// scanCRLines splits on both \n and \r so carriage-return progress redraws
// surface as individual lines instead of one giant token at exit.
func scanCRLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
