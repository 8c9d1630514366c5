package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv     string
	Port       string
	LogLevel   string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	JWTSecret  string

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	CategoryCacheTTL time.Duration

	// Estimasi waktu tunggu per pasien di depan antrian.
	AvgConsultMinutes     int
	PrescriptionValidDays int

	RateLimitRPS   float64
	RateLimitBurst int

	// Dipakai oleh sisi console (papan antrian / dashboard dokter).
	APIBaseURL     string
	APIToken       string
	PollInterval   time.Duration
	SearchDebounce time.Duration
}

var (
	cfg  *Config
	once sync.Once
)

func LoadConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found. Relying on environment variables.")
		}
		cfg = fromEnv()
	})
	return cfg
}

func fromEnv() *Config {
	return &Config{
		AppEnv:     os.Getenv("APP_ENV"),
		Port:       getEnv("PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBName:     os.Getenv("DB_NAME"),
		JWTSecret:  os.Getenv("JWT_SECRET_KEY"),

		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          getInt("REDIS_DB", 0),
		CategoryCacheTTL: getDuration("CATEGORY_CACHE_TTL", 10*time.Minute),

		AvgConsultMinutes:     getInt("AVG_CONSULT_MINUTES", 15),
		PrescriptionValidDays: getInt("PRESCRIPTION_VALID_DAYS", 30),

		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 10),

		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8080"),
		APIToken:       os.Getenv("API_TOKEN"),
		PollInterval:   getDuration("POLL_INTERVAL", 15*time.Second),
		SearchDebounce: getDuration("SEARCH_DEBOUNCE", 300*time.Millisecond),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s=%q bukan angka, memakai default %d", key, v, def)
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Warning: %s=%q bukan angka, memakai default %v", key, v, def)
		return def
	}
	return f
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Warning: %s=%q bukan durasi valid, memakai default %s", key, v, def)
		return def
	}
	return d
}
