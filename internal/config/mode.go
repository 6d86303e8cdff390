package config

import (
	"fmt"
	"strings"
)

// ModeKind enumerates the persistence backends.
type ModeKind int

const (
	// Local persists to the local durable store.
	Local ModeKind = iota
	// Remote persists through the HTTP API at Mode.BaseURL.
	Remote
	// GoogleTasks persists to the user's default Google Tasks list.
	GoogleTasks
)

func (k ModeKind) String() string {
	switch k {
	case Local:
		return "local"
	case Remote:
		return "remote"
	case GoogleTasks:
		return "googletasks"
	default:
		return fmt.Sprintf("ModeKind(%d)", int(k))
	}
}

// Mode is the persistence backend chosen once at startup.
type Mode struct {
	Kind    ModeKind
	BaseURL string // set for Remote only
}

func (m Mode) String() string {
	if m.Kind == Remote {
		return "remote(" + m.BaseURL + ")"
	}
	return m.Kind.String()
}

// ResolveMode picks the backend. An explicit backend name wins;
// otherwise a non-empty base URL selects remote and anything else is local.
func ResolveMode(backend, apiBase string) (Mode, error) {
	apiBase = strings.TrimRight(strings.TrimSpace(apiBase), "/")

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "":
		if apiBase != "" {
			return Mode{Kind: Remote, BaseURL: apiBase}, nil
		}
		return Mode{Kind: Local}, nil
	case "local":
		return Mode{Kind: Local}, nil
	case "remote":
		if apiBase == "" {
			return Mode{}, fmt.Errorf("remote backend requires api_base")
		}
		return Mode{Kind: Remote, BaseURL: apiBase}, nil
	case "googletasks":
		return Mode{Kind: GoogleTasks}, nil
	default:
		return Mode{}, fmt.Errorf("unknown backend: %s", backend)
	}
}
