package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/pKV/lib/cache"
	"github.com/ValentinKolb/pKV/lib/common"
	"github.com/ValentinKolb/pKV/lib/db"
	"github.com/ValentinKolb/pKV/lib/db/engines/radix"
	"github.com/ValentinKolb/pKV/lib/store"
	"github.com/ValentinKolb/pKV/lib/store/lstore"
	"github.com/ValentinKolb/pKV/lib/trie"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Logger = logger.GetLogger("cli")

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads .env files and initializes viper to read PKV_* environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("pkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags (including the inherited persistent flags) to viper
func BindCommandFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.InheritedFlags()); err != nil {
		return err
	}
	return viper.BindPFlags(cmd.Flags())
}

// SetupLogging sets the level of all pKV loggers from the log-level setting
func SetupLogging() error {
	return common.InitLoggers(viper.GetString("log-level"))
}

// GetTrieOptions returns the trie options from the configuration
func GetTrieOptions() *trie.Options {
	opts := trie.DefaultOptions()
	if s := viper.GetInt("stripes"); s > 0 {
		opts.Stripes = s
	}
	return opts
}

// GetDBOptions returns the radix database options from the configuration
func GetDBOptions() *radix.DBOptions {
	opts := radix.DefaultOptions()
	opts.Stripes = GetTrieOptions().Stripes
	if d := viper.GetDuration("gc-interval"); d > 0 {
		opts.GCInterval = d
	}
	return opts
}

// NewStore creates a local store on top of a radix database configured from viper
func NewStore() store.IStore {
	opts := GetDBOptions()
	Logger.Debugf("creating store (stripes=%d, gc-interval=%s)", opts.Stripes, opts.GCInterval)
	return lstore.NewLocalStore(func() db.KVDB { return radix.NewRadixDB(opts) })
}

// NewCacheManager creates a cache manager on top of a new store
func NewCacheManager() (*cache.Manager, error) {
	ser, err := GetSerializer()
	if err != nil {
		return nil, err
	}
	return cache.NewManager(NewStore(), cache.NewKeyBuilder(), &cache.Options{
		Namespace:   viper.GetString("namespace"),
		Serializer:  ser,
		LockTimeout: viper.GetUint64("lock-timeout"),
		LockWait:    viper.GetDuration("lock-wait"),
	}), nil
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (cache.Serializer, error) {
	switch viper.GetString("serializer") {
	case "json", "":
		return cache.NewJSONSerializer(), nil
	case "gob":
		return cache.NewGOBSerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}
}

// DefaultGCInterval is shown as default of the gc-interval flag
var DefaultGCInterval = radix.DefaultOptions().GCInterval
