package config

import "time"

const (
	DefaultBind              = ":8001"
	DefaultRootDomain        = "contx.eth"
	DefaultReservedPrefix    = "ai."
	DefaultRequestTimeout    = 10 * time.Second
	DefaultRegistryTimeout   = 5 * time.Second
	DefaultFailTimeout       = 30 * time.Second
	DefaultTrialDelay        = 50 * time.Millisecond
	DefaultNumericMax        = 999
	DefaultCacheSize         = 10000
	DefaultCacheTTL          = 5 * time.Minute
	DefaultMetricsPath       = "/metrics"
	DefaultRegisterSignature = "register(string,string)"
	DefaultEventSignature    = "ProfileRegistered(address,string)"
	DefaultConfigPath        = "./conf/config.yaml"

	B  = 1
	KB = 1024 * B
	MB = 1024 * KB
)
