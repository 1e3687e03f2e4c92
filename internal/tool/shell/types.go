package shell

// ShellRequest runs Command through sh -c.
type ShellRequest struct {
	Command        string   `json:"command"`
	WorkingDir     string   `json:"working_dir,omitempty"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty"`
	EnvFiles       []string `json:"env_files,omitempty"`
}

func (r *ShellRequest) Validate() error {
	if r.Command == "" {
		return ErrCommandRequired
	}
	if r.TimeoutSeconds < 0 {
		return ErrNegativeTimeout
	}
	if r.WorkingDir == "" {
		r.WorkingDir = "."
	}
	return nil
}
