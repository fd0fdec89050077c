package config

import (
	"time"
)

type Options struct {
	configPath      string           `yaml:"-" json:"-"`
	Logging         LoggingOptions   `yaml:"logging" json:"logging"`
	Server          ServerOptions    `yaml:"server" json:"server"`
	Gateway         GatewayOptions   `yaml:"gateway" json:"gateway"`
	Registry        RegistryOptions  `yaml:"registry" json:"registry"`
	Resolver        ResolverOptions  `yaml:"resolver" json:"resolver"`
	Cache           CacheOptions     `yaml:"cache" json:"cache"`
	Redis           []RedisOptions   `yaml:"redis" json:"redis"`
	Metrics         MetricsOptions   `yaml:"metrics" json:"metrics"`
	Tracing         TracingOptions   `yaml:"tracing" json:"tracing"`
	AccessLog       AccessLogOptions `yaml:"access_log" json:"access_log"`
	TimerResolution time.Duration    `yaml:"timer_resolution" json:"timer_resolution"`
}

func NewOptions() Options {
	return Options{
		Server: ServerOptions{
			Bind: DefaultBind,
		},
		Gateway: GatewayOptions{
			RootDomain:       DefaultRootDomain,
			ReservedPrefixes: []string{DefaultReservedPrefix},
			RequestTimeout:   DefaultRequestTimeout,
		},
		Registry: RegistryOptions{
			Timeout:           DefaultRegistryTimeout,
			FailTimeout:       DefaultFailTimeout,
			RegisterSignature: DefaultRegisterSignature,
			EventSignature:    DefaultEventSignature,
		},
		Resolver: ResolverOptions{
			TrialDelay: DefaultTrialDelay,
			NumericMax: DefaultNumericMax,
		},
		Cache: CacheOptions{
			Type: CacheLRU,
			Size: DefaultCacheSize,
			TTL:  DefaultCacheTTL,
		},
		Metrics: MetricsOptions{
			Prometheus: PrometheusOptions{
				Path: DefaultMetricsPath,
			},
		},
		Tracing: TracingOptions{
			SamplingRate: 1,
		},
	}
}

func (opt Options) ConfigPath() string {
	return opt.configPath
}

type LoggingOptions struct {
	Level   string `yaml:"level" json:"level"`
	Handler string `yaml:"handler" json:"handler"`
	Output  string `yaml:"output" json:"output"`
}

type ServerOptions struct {
	Bind               string               `yaml:"bind" json:"bind"`
	Middlewares        []MiddlewareOptions  `yaml:"middlewares" json:"middlewares"`
	Timeout            ServerTimeoutOptions `yaml:"timeout" json:"timeout"`
	MaxRequestBodySize int                  `yaml:"max_request_body_size" json:"max_request_body_size"`
	// Debug mounts the registry diagnostic endpoint.
	Debug bool `yaml:"debug" json:"debug"`
	PPROF bool `yaml:"pprof" json:"pprof"`
}

type ServerTimeoutOptions struct {
	Graceful  time.Duration `yaml:"graceful" json:"graceful"`
	Idle      time.Duration `yaml:"idle" json:"idle"`
	KeepAlive time.Duration `yaml:"keepalive" json:"keepalive"`
	Read      time.Duration `yaml:"read" json:"read"`
	Write     time.Duration `yaml:"write" json:"write"`
}

type MiddlewareOptions struct {
	Type   string `yaml:"type" json:"type"`
	Params any    `yaml:"params" json:"params"`
}

type GatewayOptions struct {
	RootDomain       string        `yaml:"root_domain" json:"root_domain"`
	ReservedPrefixes []string      `yaml:"reserved_prefixes" json:"reserved_prefixes"`
	RequestTimeout   time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

type RegistryOptions struct {
	Contract  string        `yaml:"contract" json:"contract"`
	Endpoints []string      `yaml:"endpoints" json:"endpoints"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	// MaxFails is the number of failures after which an endpoint is skipped for FailTimeout. 0 never skips.
	MaxFails    uint          `yaml:"max_fails" json:"max_fails"`
	FailTimeout time.Duration `yaml:"fail_timeout" json:"fail_timeout"`

	RegisterSignature string `yaml:"register_signature" json:"register_signature"`
	EventSignature    string `yaml:"event_signature" json:"event_signature"`
	FromBlock         uint64 `yaml:"from_block" json:"from_block"`
}

type ResolverOptions struct {
	TrialDelay time.Duration `yaml:"trial_delay" json:"trial_delay"`
	Curated    []string      `yaml:"curated" json:"curated"`
	Terms      []string      `yaml:"terms" json:"terms"`
	NumericMax int           `yaml:"numeric_max" json:"numeric_max"`
	Events     bool          `yaml:"events" json:"events"`
	Index      IndexOptions  `yaml:"index" json:"index"`
}

type IndexOptions struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	RedisID string `yaml:"redis_id" json:"redis_id"`
	Key     string `yaml:"key" json:"key"`
}

type CacheType string

const (
	CacheMemory CacheType = "memory"
	CacheLRU    CacheType = "lru"
	CacheRedis  CacheType = "redis"
)

type CacheOptions struct {
	Type    CacheType     `yaml:"type" json:"type"`
	Size    int           `yaml:"size" json:"size"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
	RedisID string        `yaml:"redis_id" json:"redis_id"`
	Prefix  string        `yaml:"prefix" json:"prefix"`
}

type RedisOptions struct {
	ID       string   `yaml:"id" json:"id"`
	Username string   `yaml:"username" json:"username"`
	Password string   `yaml:"password" json:"password"`
	Addrs    []string `yaml:"addrs" json:"addrs"`
	DB       int      `yaml:"db" json:"db"`
	SkipPing bool     `yaml:"skip_ping" json:"skip_ping"`
}

type MetricsOptions struct {
	Prometheus PrometheusOptions `yaml:"prometheus" json:"prometheus"`
}

type PrometheusOptions struct {
	Path    string    `yaml:"path" json:"path"`
	Buckets []float64 `yaml:"buckets" json:"buckets"`
	Enabled bool      `yaml:"enabled" json:"enabled"`
}

type TracingOptions struct {
	ServiceName  string        `yaml:"service_name" json:"service_name"`
	Endpoint     string        `yaml:"endpoint" json:"endpoint"`
	Propagators  []string      `yaml:"propagators" json:"propagators"`
	SamplingRate float64       `yaml:"sampling_rate" json:"sampling_rate"`
	BatchSize    int64         `yaml:"batch_size" json:"batch_size"`
	QueueSize    int64         `yaml:"queue_size" json:"queue_size"`
	Flush        time.Duration `yaml:"flush" json:"flush"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	Insecure     bool          `yaml:"insecure" json:"insecure"`
	Enabled      bool          `yaml:"enabled" json:"enabled"`
}

type EscapeType string

const (
	DefaultEscape EscapeType = "default"
	JSONEscape    EscapeType = "json"
	NoneEscape    EscapeType = "none"
)

type AccessLogOptions struct {
	Enabled    bool          `yaml:"enabled" json:"enabled"`
	Output     string        `yaml:"output" json:"output"`
	Template   string        `yaml:"template" json:"template"`
	TimeFormat string        `yaml:"time_format" json:"time_format"`
	Escape     EscapeType    `yaml:"escape" json:"escape"`
	BufferSize int           `yaml:"buffer_size" json:"buffer_size"`
	Flush      time.Duration `yaml:"flush" json:"flush"`
}
