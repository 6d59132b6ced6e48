package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the full typed configuration of the waitlist client.
type Config struct {
	Form      FormConfig      `yaml:"form"`
	Transport TransportConfig `yaml:"transport"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Guard     GuardConfig     `yaml:"guard"`
	Wallet    WalletConfig    `yaml:"wallet"`
	Log       LogConfig       `yaml:"log"`
	Sink      ServerConfig    `yaml:"sink"`
	DB        DBConfig        `yaml:"db"`
	Redis     RedisConfig     `yaml:"redis"`
	MQ        MQConfig        `yaml:"mq"`
}

// FormConfig identifies one waitlist form instance.
type FormConfig struct {
	ID              string        `yaml:"id"`
	IdentityTimeout time.Duration `yaml:"identity_timeout"`
}

// TransportConfig selects and configures where records go.
type TransportConfig struct {
	Kind     string              `yaml:"kind"`
	HTTP     HTTPTransportConfig `yaml:"http"`
	Local    LocalConfig         `yaml:"local"`
	RedisKey string              `yaml:"redis_key"`
	PGTable  string              `yaml:"pg_table"`
	// RoutingKey is used by the amqp transport.
	RoutingKey string `yaml:"routing_key"`
}

// HTTPTransportConfig configures the remote endpoint transports.
type HTTPTransportConfig struct {
	URL     string        `yaml:"url"`
	Method  string        `yaml:"method"`
	Ack     string        `yaml:"ack"`
	Timeout time.Duration `yaml:"timeout"`
	// SigningSecret, when set, adds an HS256 bearer token to every request.
	SigningSecret string `yaml:"signing_secret"`
}

type LocalConfig struct {
	Path string `yaml:"path"`
	List string `yaml:"list"`
}

// BreakerConfig mirrors circuitbreaker.Config.
type BreakerConfig struct {
	Enabled             bool          `yaml:"enabled"`
	FailureThreshold    int           `yaml:"failure_threshold"`
	SuccessThreshold    int           `yaml:"success_threshold"`
	Timeout             time.Duration `yaml:"timeout"`
	HalfOpenMaxRequests int           `yaml:"half_open_max_requests"`
}

// GuardConfig selects the in-flight guard: local or redis.
type GuardConfig struct {
	Kind string        `yaml:"kind"`
	TTL  time.Duration `yaml:"ttl"`
}

type WalletConfig struct {
	KeyFile    string `yaml:"key_file"`
	InstallURL string `yaml:"install_url"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type MQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
	// Confirm waits for the broker ack on every publish.
	Confirm bool `yaml:"confirm"`
}

// Default returns the values used when a key is absent from every layer.
func Default() *Config {
	return &Config{
		Form: FormConfig{
			ID:              "waitlist",
			IdentityTimeout: 500 * time.Millisecond,
		},
		Transport: TransportConfig{
			Kind: "local",
			HTTP: HTTPTransportConfig{
				Method:  "POST",
				Ack:     "status",
				Timeout: 10 * time.Second,
			},
			Local: LocalConfig{
				Path: "waitlist.db",
				List: "mirror_sync_waitlist",
			},
			RedisKey:   "mirror_sync_waitlist",
			PGTable:    "waitlist_entries",
			RoutingKey: "waitlist.joined",
		},
		Breaker: BreakerConfig{
			FailureThreshold:    5,
			SuccessThreshold:    2,
			Timeout:             30 * time.Second,
			HalfOpenMaxRequests: 3,
		},
		Guard: GuardConfig{
			Kind: "local",
			TTL:  30 * time.Second,
		},
		Wallet: WalletConfig{
			InstallURL: "https://phantom.app/",
		},
		Log:  LogConfig{Level: "info"},
		Sink: ServerConfig{Port: ":8088"},
		MQ: MQConfig{
			Exchange: "events",
			Confirm:  true,
		},
	}
}

// OverrideTransportFromEnv lets deployments switch backends without editing yaml.
func OverrideTransportFromEnv(cfg *TransportConfig) {
	if kind := os.Getenv("WAITLIST_TRANSPORT"); kind != "" {
		cfg.Kind = kind
	}
	if url := os.Getenv("WAITLIST_URL"); url != "" {
		cfg.HTTP.URL = url
	}
	if ack := os.Getenv("WAITLIST_ACK"); ack != "" {
		cfg.HTTP.Ack = ack
	}
	if secret := os.Getenv("WAITLIST_SIGNING_SECRET"); secret != "" {
		cfg.HTTP.SigningSecret = secret
	}
	if path := os.Getenv("WAITLIST_LOCAL_PATH"); path != "" {
		cfg.Local.Path = path
	}
}

func OverrideDBFromEnv(cfg *DBConfig) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Name = name
	}
}

func OverrideRedisFromEnv(cfg *RedisConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
}

func OverrideMQFromEnv(cfg *MQConfig) {
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.URL = url
	}
}

func OverrideWalletFromEnv(cfg *WalletConfig) {
	if path := os.Getenv("WALLET_KEY_FILE"); path != "" {
		cfg.KeyFile = path
	}
}

func OverrideServerFromEnv(cfg *ServerConfig) {
	if port := os.Getenv("SINK_PORT"); port != "" {
		cfg.Port = port
	}
}
