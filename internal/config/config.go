package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings parses list-valued variables
	"time"    // time holds interval settings
)

// defaultUserAgent is sent on feed and provider requests; some ticketing
// sites answer differently to an empty UA.
const defaultUserAgent = "Mozilla/5.0 (X11; Linux) AppleWebKit/537.36 Chrome/123 Safari/537.36"

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; required ones are enforced by must() and the
// rest fall back to the defaults the original deployment used.
type Config struct {
	Env            string            // application environment (e.g. "dev", "prod")
	Port           string            // HTTP port to listen on
	FeedURL        string            // published cartelera page carrying the payload
	UserAgent      string            // User-Agent for outbound fetches
	StateFile      string            // path of the JSON state file
	TelegramToken  string            // bot token; empty disables the Telegram transport
	TelegramLimit  int               // transport message size limit
	PollInterval   time.Duration     // gap between poll cycles
	PollFirstDelay time.Duration     // delay before the first cycle after startup
	FeedCacheTTL   time.Duration     // payload cache freshness window
	FeverURLs      map[string]string // show name -> Fever event page (optional)
	EmitRemovals   bool              // alert when a session disappears from the feed
	JWTSecret      string            // secret used to sign admin JWTs
	AdminKeyHash   string            // bcrypt hash of the admin key
	AccessTTLMin   int               // admin token time-to-live in minutes
	ArchiveEnabled bool              // write change events to MySQL
	QueueEnabled   bool              // publish/consume change batches over RabbitMQ
	DBUser         string            // archive database username
	DBPass         string            // archive database password (optional)
	DBHost         string            // archive database host
	DBPort         string            // archive database port
	DBName         string            // archive database name
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:            must("APP_ENV"),                                // environment (dev/test/prod)
		Port:           must("APP_PORT"),                               // port to bind the HTTP server
		FeedURL:        must("FEED_URL"),                               // aggregated payload page
		UserAgent:      getenv("FEED_USER_AGENT", defaultUserAgent),    // UA for outbound requests
		StateFile:      getenv("STATE_FILE", "state.json"),             // durable state location
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),                // empty -> bot disabled
		TelegramLimit:  atoiDefault("TELEGRAM_LIMIT", 4096),            // Telegram message cap
		PollInterval:   parseDur(getenv("POLL_INTERVAL", "120s")),      // cycle cadence
		PollFirstDelay: parseDur(getenv("POLL_FIRST_DELAY", "5s")),     // first run shortly after boot
		FeedCacheTTL:   parseDur(getenv("FEED_CACHE_TTL", "60s")),      // payload reuse window
		FeverURLs:      parsePairs(os.Getenv("FEVER_URLS")),            // "Show=url,Show2=url2"
		EmitRemovals:   getenv("EMIT_REMOVALS", "false") == "true",     // removal alerts off by default
		JWTSecret:      must("JWT_SECRET"),                             // secret for admin JWTs
		AdminKeyHash:   must("ADMIN_KEY_HASH"),                         // bcrypt hash of the admin key
		AccessTTLMin:   atoiDefault("ACCESS_TOKEN_TTL_MIN", 60),        // admin token TTL
		ArchiveEnabled: getenv("ARCHIVE_ENABLED", "false") == "true",   // MySQL archive opt-in
		QueueEnabled:   getenv("QUEUE_ENABLED", "false") == "true",     // RabbitMQ opt-in
	}
	if cfg.ArchiveEnabled {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// atoiDefault converts an optional integer variable, keeping the default on
// any parse failure.
func atoiDefault(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		log.Printf("config: invalid int for %s: %q, using %d", key, s, def)
		return def
	}
	return n
}

// parsePairs reads a "Name=value,Name2=value2" list into a map.  Entries
// without an equals sign are skipped.
func parsePairs(s string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if i := strings.IndexByte(part, '='); i > 0 {
			out[part[:i]] = part[i+1:]
		}
	}
	return out
}
