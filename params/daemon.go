package params

type ListenerConfig struct {
	Network string
	Address string
}

type MaskDaemonConfig struct {
	ListenerConfig
	DataDir string

	// MaskConfig is the default compute config for requests
	// that don't override it.
	MaskConfig *MaskConfig
}

func DefaultMaskDaemonListenerConfig() ListenerConfig {
	return ListenerConfig{
		Network: "tcp",
		Address: "localhost:4232",
	}
}

func DefaultMaskDaemonConfig() *MaskDaemonConfig {
	return &MaskDaemonConfig{
		ListenerConfig: DefaultMaskDaemonListenerConfig(),
		DataDir:        DatadirRoot,
		MaskConfig:     DefaultMaskConfig(),
	}
}

func DefaultTestMaskDaemonConfig() *MaskDaemonConfig {
	return &MaskDaemonConfig{
		ListenerConfig: ListenerConfig{
			Network: "tcp",
			Address: "localhost:4233",
		},
		DataDir:    "",
		MaskConfig: DefaultMaskConfig(),
	}
}
