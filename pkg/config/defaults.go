package config

const (
	defaultServiceListen = ":8080"

	defaultClientTarget = "http://localhost:8080"
	defaultClientUser   = "demo"

	defaultConnectTimeoutMS = 10000
	defaultChunkDelayMS     = 200
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Service: ServiceConfig{
			Listen: defaultServiceListen,
		},
		Client: ClientConfig{
			Target:           defaultClientTarget,
			User:             defaultClientUser,
			ConnectTimeoutMS: defaultConnectTimeoutMS,
		},
		Stream: StreamConfig{
			ChunkDelayMS: defaultChunkDelayMS,
		},
	}
}
