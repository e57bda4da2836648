package index

var (
	bMeta    = []byte("meta")     // slug -> record json
	bIdxDate = []byte("idx_date") // ^date + 0x00 + slug -> 1
	bIdxTag  = []byte("idx_tag")  // folded tag -> sub-bucket of date keys
	bState   = []byte("state")

	keyFingerprint = []byte("fingerprint")
)
