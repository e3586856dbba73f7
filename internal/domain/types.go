package domain

type Kind int

const (
	KindRoot Kind = iota
	KindToolbar
	KindConnection
	KindCollection
	KindDocument
	KindLoading
)

func (kind Kind) String() string {
	switch kind {
	case KindRoot:
		return "root"
	case KindToolbar:
		return "toolbar"
	case KindConnection:
		return "connection"
	case KindCollection:
		return "collection"
	case KindDocument:
		return "document"
	case KindLoading:
		return "loading"
	default:
		return "unknown"
	}
}

func (kind Kind) IsContainer() bool {
	switch kind {
	case KindRoot, KindConnection, KindCollection:
		return true
	default:
		return false
	}
}
