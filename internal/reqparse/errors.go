package reqparse

import (
	"fmt"
	"io"
	"time"
)

// httpDateFormat is the RFC 1123 format (as modified by RFC 7231
// §7.1.1.1) HTTP requires for the Date header.
const httpDateFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

var reasonPhrase = map[Status]string{
	StatusBadRequest:     "Bad Request",
	StatusMethodNotAllow: "Method Not Allowed",
	StatusRequestTimeout: "Request Time-out",
	StatusFieldTooLarge:  "Request Header Fields Too Large",
	StatusVersionUnsup:   "HTTP Version Not Supported",
	500:                  "Internal Server Error",
}

// WriteError writes the small synthetic HTTP/1.1 response spec.md
// §4.7 describes: a Date header, Connection: close, a text/html
// Content-Type, and a minimal body naming the status and its reason
// phrase. 405 additionally carries Allow: HEAD, GET.
//
// If writing the response itself fails, WriteError returns 408 so the
// caller logs a timeout instead of the original status; otherwise it
// returns status unchanged.
func WriteError(w io.Writer, status Status) Status {
	reason := reasonPhrase[status]
	body := fmt.Sprintf("<html><head><title>%d %s</title></head>"+
		"<body><h1>%d %s</h1></body></html>", status, reason, status, reason)

	allow := ""
	if status == StatusMethodNotAllow {
		allow = "Allow: HEAD, GET\r\n"
	}

	resp := fmt.Sprintf(
		"HTTP/1.1 %d %s\r\n"+
			"Date: %s\r\n"+
			"Connection: close\r\n"+
			"Content-Type: text/html\r\n"+
			"%s"+
			"Content-Length: %d\r\n"+
			"\r\n%s",
		status, reason, time.Now().UTC().Format(httpDateFormat), allow, len(body), body)

	if _, err := io.WriteString(w, resp); err != nil {
		return StatusRequestTimeout
	}
	return status
}
