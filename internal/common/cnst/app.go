package cnst

const (
	// AppName is the canonical name of this service
	AppName = "survey-monitor"

	// ApiServerYaml is the default apiserver configuration file name
	ApiServerYaml = "apiserver.yaml"
)
