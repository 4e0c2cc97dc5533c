package ingest

import "strings"

// ArchiveKind identifies which kind of backup export a payload contains.
type ArchiveKind int

const (
	ArchiveUnknown ArchiveKind = iota
	ArchiveMessages
	ArchiveCalls
)

func (k ArchiveKind) String() string {
	switch k {
	case ArchiveMessages:
		return "messages"
	case ArchiveCalls:
		return "calls"
	default:
		return "unknown"
	}
}

// DetectArchive sniffs the root element markers to distinguish a messages
// export from a calls export before attempting a full parse. Detection is
// byte-level on purpose: the exports carry no format flag.
func DetectArchive(content string) ArchiveKind {
	switch {
	case strings.Contains(content, "<smses"):
		return ArchiveMessages
	case strings.Contains(content, "<calls"):
		return ArchiveCalls
	default:
		return ArchiveUnknown
	}
}
