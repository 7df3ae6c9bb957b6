package multipass

// State is the power state multipass reports for an instance.
type State string

const (
	StateRunning State = "Running"
	StateStopped State = "Stopped"
)

// Instance is one entry of the platform's inventory listing.
type Instance struct {
	Name  string `json:"name"`
	State State  `json:"state"`
}

// listOutput is the shape of `multipass list --format json`.
type listOutput struct {
	List []Instance `json:"list"`
}

// infoOutput is the shape of `multipass info <name> --format json`. Only
// the mount table is consumed.
type infoOutput struct {
	Info map[string]struct {
		Mounts map[string]struct {
			SourcePath string `json:"source_path"`
		} `json:"mounts"`
	} `json:"info"`
}
