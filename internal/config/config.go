package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	SwapApproverAdmin     = "Admin"
	SwapApproverColleague = "Colleague"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	// SwapApprover 决定谁可以审批换班申请：管理员或被请求的同事
	SwapApprover string `env:"SWAP_APPROVER" envDefault:"Admin"`
	Server       struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	Scheduling struct {
		Timezone                string `env:"TIMEZONE" envDefault:"Local"`
		MaxRecurringOccurrences int    `env:"MAX_RECURRING_OCCURRENCES" envDefault:"100"`
	} `envPrefix:"SCHEDULING_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"管理员"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"1209600"` // 14 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Seed struct {
		User struct {
			Password string `env:"PASSWORD" envDefault:"password"`
		} `envPrefix:"USER_"`
	} `envPrefix:"SEED_"`
	Email struct {
		UserDomain string `env:"USER_DOMAIN" envDefault:"example.com"`
		SMTP       struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
	} `envPrefix:"REDIS_"`
	OTP struct {
		Expiration int `env:"EXPIRATION" envDefault:"900"` // 15 分钟
	} `envPrefix:"OTP_"`
	NewUser struct {
		PasswordLength int `env:"PASSWORD_LENGTH" envDefault:"12"`
	} `envPrefix:"NEW_USER_"`
}

// LoadConfig 从环境变量读取配置，当前目录存在 .env 文件时先加载它
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("无法读取 .env 文件: %w", err)
	}

	return Parse()
}

// Parse 只从环境变量读取配置
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) Validate() error {
	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.Database.DSN == "" {
			return errors.New("STORE_DRIVER 为 postgres 时必须设置 DATABASE_DSN")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("未知的 STORE_DRIVER: %q", cfg.StoreDriver)
	}

	switch cfg.SwapApprover {
	case SwapApproverAdmin, SwapApproverColleague:
	default:
		return fmt.Errorf("未知的 SWAP_APPROVER: %q", cfg.SwapApprover)
	}

	if _, err := cfg.Location(); err != nil {
		return fmt.Errorf("无效的 SCHEDULING_TIMEZONE: %w", err)
	}
	if cfg.Scheduling.MaxRecurringOccurrences <= 0 {
		return errors.New("SCHEDULING_MAX_RECURRING_OCCURRENCES 必须大于 0")
	}

	return nil
}

// Location 返回计算班次日期所用的时区
func (cfg *Config) Location() (*time.Location, error) {
	return time.LoadLocation(cfg.Scheduling.Timezone)
}
