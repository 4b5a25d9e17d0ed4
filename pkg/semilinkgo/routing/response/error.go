package response

import (
	"regexp"
	"strings"
)

// PostgREST errors surface as "(CODE) message".
var errorCodeRegex = regexp.MustCompile(`^\(([A-Z0-9]+)\)`)

var noRowsRegex = regexp.MustCompile(`\bcontains 0 rows\b`)

const (
	// CodeNoRows is returned by single-row selects that matched nothing.
	CodeNoRows = "PGRST116"
)

func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	match := errorCodeRegex.FindStringSubmatch(strings.TrimSpace(err.Error()))
	if match == nil {
		return ""
	}
	return match[1]
}

func IsNoRows(err error) bool {
	if err == nil {
		return false
	}
	return ErrorCode(err) == CodeNoRows || noRowsRegex.MatchString(err.Error())
}
