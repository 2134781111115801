// Package reqparse implements the bounded, string-prefix based request
// parser: it consumes a raw header buffer in place, without mutating
// it, and recovers the method, percent-decoded target, HTTP version
// and the small closed set of header fields the proxy cares about.
package reqparse

import "bytes"

// Method is the restricted set of request methods the proxy accepts.
type Method int

const (
	methodUnknown Method = iota
	GET
	HEAD
)

// Field identifies one of the handful of header names the parser
// recognizes. Every other header line is skipped as a unit.
type Field int

const (
	// Host is the only field consulted downstream by the matcher; the
	// rest exist so unrecognized-but-common lines are skipped the same
	// way known ones are, matching the source's uniform line-walk.
	Host Field = iota
	Range
	IfModifiedSince
	numFields
)

var fieldNames = [numFields]string{
	Host:            "host",
	Range:           "range",
	IfModifiedSince: "if-modified-since",
}

// PathMax and FieldMax bound the target and field-value slots
// respectively (spec's PATH_MAX / FIELD_MAX, implementation-defined in
// the original source's config.h). PathMax equals the header buffer's
// reqhead.Max and FieldMax is well inside it, so they only ever reject
// pathological single fields, not whole requests.
const (
	PathMax  = 4096
	FieldMax = 256
)

// Request is the parsed view of a client request. It never owns the
// raw bytes it was parsed from; HeaderBuffer outlives it and is what
// gets replayed to the backend.
type Request struct {
	Method Method
	// Target is the request-target as received, percent-decoded.
	// Not consulted by the proxy path; kept solely for the log record.
	Target string
	fields [numFields]string
}

// Field returns the trimmed value of a known header field, or "" if
// the client didn't send it.
func (r *Request) Field(f Field) string { return r.fields[f] }

// Status is the outcome of Parse: zero means success, any other value
// is one of the HTTP status codes spec.md §4.2 names ({400, 405, 431,
// 505}) for which the caller must write a synthetic error response.
type Status int

const (
	OK                   Status = 0
	StatusBadRequest     Status = 400
	StatusMethodNotAllow Status = 405
	StatusRequestTimeout Status = 408
	StatusFieldTooLarge  Status = 431
	StatusVersionUnsup   Status = 505
)

// Parse scans buf once from offset zero: request-line, then header
// lines up to the blank line terminating them. buf is expected to be
// exactly the bytes a reqhead.Buffer accumulated (so it ends in
// CRLFCRLF, or is the EOF-before-terminator edge case reqhead.Fill
// tolerates). Parse never writes to buf.
//
// Once Method and Target have been recovered, Parse returns the
// partially-populated *Request alongside any later non-OK status
// instead of nil: a version mismatch, a field-parse failure, or a
// missing Host still has a real decoded target, and the caller's log
// record should reflect it rather than an empty string. Only a
// request-line failure, before Target exists, returns a nil *Request.
func Parse(buf []byte) (*Request, Status) {
	method, rest, st := parseMethod(buf)
	if st != OK {
		return nil, st
	}

	rawTarget, rest, st := parseTarget(rest)
	if st != OK {
		return nil, st
	}
	if len(rawTarget) >= PathMax {
		return nil, StatusBadRequest
	}
	req := &Request{Method: method, Target: string(percentDecode(rawTarget))}

	rest, st = parseVersion(rest)
	if st != OK {
		return req, st
	}

	if st := parseFields(rest, req); st != OK {
		return req, st
	}

	if req.fields[Host] == "" {
		return req, StatusBadRequest
	}
	return req, OK
}

// parseMethod matches the longest prefix equal to one of the method
// tokens, requiring a single space immediately after it. Any other
// token (or a request line with no space at all) is rejected: a space
// with an unrecognized token is 405, a missing space is 400.
func parseMethod(buf []byte) (Method, []byte, Status) {
	sp := bytes.IndexByte(buf, ' ')
	if sp < 0 {
		return methodUnknown, nil, StatusBadRequest
	}
	switch string(buf[:sp]) {
	case "GET":
		return GET, buf[sp+1:], OK
	case "HEAD":
		return HEAD, buf[sp+1:], OK
	default:
		return methodUnknown, nil, StatusMethodNotAllow
	}
}

// parseTarget consumes everything up to the next single space as the
// raw, not-yet-decoded request-target.
func parseTarget(buf []byte) ([]byte, []byte, Status) {
	sp := bytes.IndexByte(buf, ' ')
	if sp < 0 {
		return nil, nil, StatusBadRequest
	}
	return buf[:sp], buf[sp+1:], OK
}

// parseVersion requires an "HTTP/"-prefixed token terminated by CRLF.
// HTTP/1.0 and HTTP/1.1 are the only versions accepted; any other
// HTTP/-prefixed token is 505, and a missing prefix or missing CRLF is
// 400.
func parseVersion(buf []byte) ([]byte, Status) {
	crlf := bytes.Index(buf, crlfBytes)
	if crlf < 0 {
		return nil, StatusBadRequest
	}
	tok := buf[:crlf]
	if !bytes.HasPrefix(tok, []byte("HTTP/")) {
		return nil, StatusBadRequest
	}
	switch string(tok) {
	case "HTTP/1.0", "HTTP/1.1":
		return buf[crlf+2:], OK
	default:
		return nil, StatusVersionUnsup
	}
}

var crlfBytes = []byte("\r\n")
