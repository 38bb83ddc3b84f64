package domain

// Result summarizes one pipeline run.
type Result struct {
	// SourcePath is the G-code file that was converted.
	SourcePath string
	// OutputPath is the X3G file produced by the converter.
	OutputPath string
	// LocalDigest and RemoteDigest are hex MD5 digests.
	LocalDigest  string
	RemoteDigest string
	// Match reports whether the two digests are equal.
	Match bool
	// Removed lists files deleted by the cleanup step.
	Removed []string
}
