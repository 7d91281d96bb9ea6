// Where: cli/internal/casaos/model.go
// What: Typed model for CasaOS application definitions.
// Why: Replace duck-typed source records with a typed core plus an explicit
// side channel for unrecognized vendor extension keys.
package casaos

// EnvVar is an environment variable declared by a service, joined with the
// UI metadata from the service's x-casaos extension block.
type EnvVar struct {
	Name        string
	Default     string
	Label       string
	Description string
	// TypeHint is the source's own type hint (e.g. "number", "text"),
	// used only as a fallback when no inference pattern matches.
	TypeHint string
}

// Port is a container port mapping. Host is nil when the compose entry
// declares no host side, or when the host side was a placeholder that could
// not be resolved; HostUnresolved distinguishes the two states.
type Port struct {
	Container      int
	Host           *int
	HostUnresolved bool
	Protocol       string
	Description    string
}

// Volume is a bind mount of a host path into the container.
type Volume struct {
	Container   string
	Host        string
	Mode        string
	Description string
}

// Service is one container service within an app.
type Service struct {
	Name        string
	Image       string
	Environment []EnvVar
	Ports       []Port
	Volumes     []Volume
	Command     []string
	Entrypoint  []string
}

// App is a complete CasaOS application definition. Extra carries
// unrecognized x-casaos keys so new vendor extensions survive a round trip
// through the typed model.
type App struct {
	ID          string
	Name        string
	Tagline     string
	Description string
	Category    string
	Developer   string
	Homepage    string
	Icon        string
	Screenshots []string
	Tags        []string
	Services    []Service
	Extra       map[string]any
}

// validate enforces the model invariants: identity fields present, at least
// one service, and every service carrying a name and image.
func (a *App) validate() error {
	if a.ID == "" || a.Name == "" {
		return &ParseError{Reason: "app id and name must be non-empty"}
	}
	if len(a.Services) == 0 {
		return &ParseError{Reason: "app must declare at least one service"}
	}
	for _, svc := range a.Services {
		if svc.Name == "" {
			return &ParseError{Reason: "service name must be non-empty"}
		}
		if svc.Image == "" {
			return &ParseError{Reason: "service '" + svc.Name + "' has no image"}
		}
	}
	return nil
}
