package buildinfo

// Set at link time, for example:
//
//	go build -ldflags "-X 'github.com/mohammaddehghani/TelegBotCardNum/core/buildinfo.Version=v0.3.0' \
//	  -X 'github.com/mohammaddehghani/TelegBotCardNum/core/buildinfo.Commit=$(git rev-parse --short HEAD)'" ./cmd/cardbook
var (
	// Version is the release tag of the binary.
	Version = "dev"
	// Commit is the short revision the binary was built from.
	Commit = "local"
	// Date is the RFC3339 build timestamp.
	Date = ""
)

// String renders version information for startup logs.
func String() string {
	s := Version + "+" + Commit
	if Date != "" {
		s += " (" + Date + ")"
	}
	return s
}
