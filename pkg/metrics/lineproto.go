package metrics

import (
	"bytes"
	"strconv"
	"strings"
)

// LineEncoder renders the alternative line-protocol wire format: one line per
// gauge, influx-style, `name,tag=value value=<float> <unix-nanos>`. The gauge
// document is the canonical format; this strategy exists for collectors that
// only accept line input.
type LineEncoder struct{}

func (LineEncoder) ContentType() string { return "text/plain; charset=utf-8" }

func (LineEncoder) Encode(snap Snapshot, source string) ([]byte, error) {
	ts := strconv.FormatInt(snap.TakenAt.UnixNano(), 10)
	var buf bytes.Buffer
	for _, point := range collectGauges(snap) {
		buf.WriteString(escapeTag(point.name))
		buf.WriteString(",source=")
		buf.WriteString(escapeTag(source))
		for _, tag := range point.attrs {
			buf.WriteByte(',')
			buf.WriteString(escapeTag(tag.key))
			buf.WriteByte('=')
			buf.WriteString(escapeTag(tag.value))
		}
		buf.WriteString(",unit=")
		buf.WriteString(escapeTag(point.unit))
		buf.WriteString(" value=")
		buf.WriteString(strconv.FormatFloat(point.value, 'f', -1, 64))
		buf.WriteByte(' ')
		buf.WriteString(ts)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

var tagEscaper = strings.NewReplacer(",", `\,`, " ", `\ `, "=", `\=`)

func escapeTag(s string) string {
	return tagEscaper.Replace(s)
}
