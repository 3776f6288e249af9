package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// NumericPrefix parses the leading numeric token of a clinical value that
// may carry a unit suffix, e.g. "23", "10 words", "17 items". The first
// whitespace-delimited token is the signal; the rest is discarded.
func NumericPrefix(raw string) (float64, error) {
	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return 0, errors.New("empty value")
	}
	v, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return 0, fmt.Errorf("non-numeric token %q", tokens[0])
	}
	return v, nil
}
