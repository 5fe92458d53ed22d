package handlers

import (
	"errors"
	"strconv"
	"strings"
)

var errInvalidLimit = errors.New("limit must be a positive integer")

// parseLimitParam reads an optional positive limit. Zero means no limit.
func parseLimitParam(limitStr string) (int, error) {
	limitStr = strings.TrimSpace(limitStr)
	if limitStr == "" {
		return 0, nil
	}

	l, err := strconv.Atoi(limitStr)
	if err != nil || l < 1 {
		return 0, errInvalidLimit
	}
	return l, nil
}
