package klog

import (
	"fmt"
	"strings"
	"time"
)

// formatLine renders the display string the console sink and the ring
// store both receive: "[yyyy-MM-dd HH:mm:ss.SSS] [LEVEL ]? [tag] message",
// with " (repeat N times)" appended when count > 1. Timestamps render in
// the system local timezone; the stored epoch millis carry no zone.
func formatLine(ts time.Time, level Level, tag, message string, count int) string {
	var sb strings.Builder

	sb.WriteByte('[')
	sb.WriteString(ts.Local().Format("2006-01-02 15:04:05.000"))
	sb.WriteString("] ")

	if token := level.token(); token != "" {
		sb.WriteString(token)
		sb.WriteByte(' ')
	}

	sb.WriteByte('[')
	sb.WriteString(tag)
	sb.WriteString("] ")
	sb.WriteString(message)

	if count > 1 {
		fmt.Fprintf(&sb, " (repeat %d times)", count)
	}

	return sb.String()
}
