package buildinfo

// Set at build time:
//
//	go build -ldflags "-X github.com/alterngenius/chatview/internal/buildinfo.Version=v1.2.0 \
//	  -X github.com/alterngenius/chatview/internal/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/alterngenius/chatview/internal/buildinfo.BuiltAt=$(date -u +%FT%TZ)"
var (
	Version = "dev"
	Commit  = "none"
	BuiltAt = "unknown"
)
