package core

var (
	_ LoadRepository  = (*MemoryLoadRepository)(nil)
	_ JobStore        = (*MemoryJobStore)(nil)
	_ SessionStore    = (*MemorySessionStore)(nil)
	_ Relay           = unconfiguredRelay{}
	_ ConfigProvider  = (*CfgxConfigProvider)(nil)
	_ OptionsResolver = GoOptionsResolver{}
	_ RawConfigLoader = StaticRawConfigLoader{}
)
