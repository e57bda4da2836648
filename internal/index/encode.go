package index

import "time"

const (
	dateLen = len(time.DateOnly)
	// undated posts sort after every dated one
	undated = "0000-00-00"
)

// key = ^date(10) + 0x00 + slug. Inverting each byte of the YYYY-MM-DD text
// makes a forward cursor walk newest first for any four digit year.
func makeTimeSlugKey(date string, slug string) []byte {
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		date = undated
	}
	buf := make([]byte, dateLen, dateLen+1+len(slug))
	for i := 0; i < dateLen; i++ {
		buf[i] = ^date[i]
	}
	buf = append(buf, 0x00)
	buf = append(buf, slug...)
	return buf
}

func slugFromTimeSlugKey(k []byte) string {
	if len(k) < dateLen+2 || k[dateLen] != 0x00 {
		return ""
	}
	return string(k[dateLen+1:])
}
