package interpreter

// ArtifactLocator finds the files a training notebook wrote for a dataset.
//
// Single-file lookups return "" with a nil error when the file does not exist.
// A non-nil error means the lookup itself failed; the interpreter logs it and
// treats the artifact as absent. Every returned path must exist at call time.
type ArtifactLocator interface {
	MetricsFile(tag string) (string, error)
	TrainingColumnsFile(tag string) (string, error)
	FeatureMediansFile(tag string) (string, error)
	TopFeaturesFiles(tag string) ([]string, error)
	ModelFiles(tag string) ([]string, error)
	PlotFiles(tag string) ([]string, error)
	ReadFile(path string) ([]byte, error)
}
