package reqparse

import (
	"bytes"
	"strings"
)

// parseFields walks header lines from buf until it reaches the blank
// line that terminates them. For each line it looks for a colon; a
// line without one can never match a known field name and is skipped.
// When the trimmed text before the colon case-insensitively equals a
// known field name, the value (OWS-trimmed on both ends) is stored;
// anything else is skipped as a unit, matching the source's uniform
// line walk.
//
// Unlike the source's strncasecmp-based lookup, the byte immediately
// before the colon (after trimming linear whitespace) must end the
// name exactly — "Hostname:" is never mistaken for "Host" the way a
// length-bounded strncasecmp would (spec.md §9).
func parseFields(buf []byte, req *Request) Status {
	for {
		if len(buf) >= 2 && buf[0] == '\r' && buf[1] == '\n' {
			return OK
		}
		crlf := bytes.Index(buf, crlfBytes)
		if crlf < 0 {
			return StatusBadRequest
		}
		line := buf[:crlf]
		buf = buf[crlf+2:]

		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		name := trim(line[:colon])
		f, ok := lookupField(name)
		if !ok {
			continue
		}
		value := trim(line[colon+1:])
		if len(value) > FieldMax-1 {
			return StatusFieldTooLarge
		}
		req.fields[f] = string(value)
	}
}

func lookupField(name []byte) (Field, bool) {
	for f, want := range fieldNames {
		if strings.EqualFold(string(name), want) {
			return Field(f), true
		}
	}
	return 0, false
}

// trim strips leading and trailing spaces and tabs, the linear
// whitespace (OWS) RFC 7230 allows around a header value.
func trim(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	n := len(b)
	for n > i && (b[n-1] == ' ' || b[n-1] == '\t') {
		n--
	}
	return b[i:n]
}
