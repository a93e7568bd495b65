package config

import (
	"github.com/spf13/viper"
	"sync"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("schedule_time", "SCHEDULE_TIME")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("api_port", "API_PORT")
		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")
		viper.BindEnv("worker_count", "WORKER_COUNT")
		viper.BindEnv("render_timeout_seconds", "RENDER_TIMEOUT_SECONDS")
		viper.BindEnv("run_timeout_seconds", "RUN_TIMEOUT_SECONDS")
		viper.BindEnv("user_agent", "USER_AGENT")
		viper.BindEnv("smtp_host", "SMTP_HOST")
		viper.BindEnv("smtp_port", "SMTP_PORT")
		viper.BindEnv("email", "EMAIL")
		viper.BindEnv("password", "PASSWORD")
		viper.BindEnv("receiver_email", "RECEIVER_EMAIL")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("telegram_chat_id", "TELEGRAM_CHAT_ID")

		viper.SetDefault("db_path", "data/tracker.db")
		viper.SetDefault("api_port", 8080)
		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
		viper.SetDefault("worker_count", 3)
		viper.SetDefault("render_timeout_seconds", 45)
		viper.SetDefault("run_timeout_seconds", 600)
		viper.SetDefault("smtp_host", "smtp.gmail.com")
		viper.SetDefault("smtp_port", 587)
		viper.SetDefault("user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetInt64(key string) int64 {
	InitConfig()
	return viper.GetInt64(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}
