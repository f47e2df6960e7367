package shell

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/ValentinKolb/pKV/lib/cache"
	"github.com/ValentinKolb/pKV/lib/store"
)

// errExit is returned by the exit command
var errExit = errors.New("exit")

// command is a single shell command
type command struct {
	usage   string
	help    string
	minArgs int
	maxArgs int
	run     func(s *Shell, args []string) error
}

// Shell executes text commands against a cache manager
type Shell struct {
	m        *cache.Manager
	out      io.Writer
	commands map[string]command
}

// New creates a shell for m that writes its output to out
func New(m *cache.Manager, out io.Writer) *Shell {
	return &Shell{
		m:        m,
		out:      out,
		commands: commands(),
	}
}

// Run executes all lines of in until the input ends or "exit" is read.
// Failing commands print an error and do not stop the shell.
func (s *Shell) Run(in io.Reader, interactive bool) error {
	scanner := bufio.NewScanner(in)
	prompt := func() {
		if interactive {
			fmt.Fprint(s.out, "pkv> ")
		}
	}

	prompt()
	for scanner.Scan() {
		exit, err := s.Exec(scanner.Text())
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if exit {
			return nil
		}
		prompt()
	}
	return scanner.Err()
}

// Exec executes a single line. It returns true if the shell should exit.
func (s *Shell) Exec(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false, nil
	}

	name, args := strings.ToLower(fields[0]), fields[1:]
	cmd, ok := s.commands[name]
	if !ok {
		return false, fmt.Errorf("unknown command %q (see help)", name)
	}
	if len(args) < cmd.minArgs || len(args) > cmd.maxArgs {
		return false, fmt.Errorf("usage: %s", cmd.usage)
	}

	err := cmd.run(s, args)
	if errors.Is(err, errExit) {
		return true, nil
	}
	return false, err
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// --------------------------------------------------------------------------
// Commands
// --------------------------------------------------------------------------

func commands() map[string]command {
	return map[string]command{
		"set": {
			usage: "set <key> <value> [ttl]", help: "Caches a value (for ttl writes, default forever)",
			minArgs: 2, maxArgs: 3,
			run: func(s *Shell, args []string) error {
				key, err := cacheKey(args[0], args[2:])
				if err != nil {
					return err
				}
				if err := s.m.Set(key, []byte(args[1])); err != nil {
					return err
				}
				s.printf("OK\n")
				return nil
			},
		},
		"get": {
			usage: "get <key>", help: "Prints the cached value",
			minArgs: 1, maxArgs: 1,
			run: func(s *Shell, args []string) error {
				v, ok, err := s.m.Get(cache.CacheKey{Key: args[0]})
				if err != nil {
					return err
				}
				if !ok {
					s.printf("(not found)\n")
					return nil
				}
				s.printf("%s\n", v)
				return nil
			},
		},
		"getoradd": {
			usage: "getoradd <key> <value> [ttl]", help: "Prints the cached value, caches value if there is none",
			minArgs: 2, maxArgs: 3,
			run: func(s *Shell, args []string) error {
				key, err := cacheKey(args[0], args[2:])
				if err != nil {
					return err
				}
				v, loaded, err := s.m.GetOrAdd(key, []byte(args[1]))
				if err != nil {
					return err
				}
				if loaded {
					s.printf("%s (existing)\n", v)
				} else {
					s.printf("%s (added)\n", v)
				}
				return nil
			},
		},
		"del": {
			usage: "del <key>", help: "Removes a key",
			minArgs: 1, maxArgs: 1,
			run: func(s *Shell, args []string) error {
				if err := s.m.Remove(cache.CacheKey{Key: args[0]}); err != nil {
					return err
				}
				s.printf("OK\n")
				return nil
			},
		},
		"expire": {
			usage: "expire <key>", help: "Drops the value of a key but keeps the key",
			minArgs: 1, maxArgs: 1,
			run: func(s *Shell, args []string) error {
				if err := s.m.Expire(cache.CacheKey{Key: args[0]}); err != nil {
					return err
				}
				s.printf("OK\n")
				return nil
			},
		},
		"search": {
			usage: "search <prefix> [limit]", help: "Lists all entries whose key starts with prefix",
			minArgs: 1, maxArgs: 2,
			run: func(s *Shell, args []string) error {
				limit := 0
				if len(args) == 2 {
					n, err := strconv.Atoi(args[1])
					if err != nil {
						return fmt.Errorf("limit must be a number: %w", err)
					}
					limit = n
				}
				return s.list(args[0], limit, true)
			},
		},
		"keys": {
			usage: "keys", help: "Lists all keys",
			minArgs: 0, maxArgs: 0,
			run: func(s *Shell, _ []string) error {
				return s.list("", 0, false)
			},
		},
		"prune": {
			usage: "prune <prefix>", help: "Removes all keys starting with prefix",
			minArgs: 1, maxArgs: 1,
			run: func(s *Shell, args []string) error {
				n, err := s.m.RemoveByPrefix(args[0])
				if err != nil {
					return err
				}
				s.printf("removed %d\n", n)
				return nil
			},
		},
		"clear": {
			usage: "clear", help: "Removes all keys",
			minArgs: 0, maxArgs: 0,
			run: func(s *Shell, _ []string) error {
				n, err := s.m.Clear()
				if err != nil {
					return err
				}
				s.printf("removed %d\n", n)
				return nil
			},
		},
		"lock": {
			usage: "lock <name> [ttl]", help: "Acquires a lock and prints its owner id",
			minArgs: 1, maxArgs: 2,
			run: func(s *Shell, args []string) error {
				var ttl uint64
				if len(args) == 2 {
					n, err := strconv.ParseUint(args[1], 10, 64)
					if err != nil {
						return fmt.Errorf("ttl must be a number: %w", err)
					}
					ttl = n
				}
				ok, owner, err := s.m.Locks().AcquireLock(args[0], ttl)
				if err != nil {
					return err
				}
				if !ok {
					s.printf("locked by someone else\n")
					return nil
				}
				s.printf("%s\n", owner)
				return nil
			},
		},
		"unlock": {
			usage: "unlock <name> <owner>", help: "Releases a lock held by owner",
			minArgs: 2, maxArgs: 2,
			run: func(s *Shell, args []string) error {
				ok, err := s.m.Locks().ReleaseLock(args[0], []byte(args[1]))
				if err != nil {
					return err
				}
				if !ok {
					s.printf("not the owner\n")
					return nil
				}
				s.printf("OK\n")
				return nil
			},
		},
		"stats": {
			usage: "stats", help: "Prints cache counters and database information",
			minArgs: 0, maxArgs: 0,
			run: func(s *Shell, _ []string) error {
				st := s.m.Stats()
				s.printf("hits=%d misses=%d sets=%d removes=%d prefix-removes=%d removed-entries=%d lock-waits=%d\n",
					st.Hits, st.Misses, st.Sets, st.Removes, st.PrefixRemoves, st.RemovedEntries, st.LockWaits)

				info, err := s.m.Store().GetDBInfo()
				if err != nil {
					return err
				}
				s.printf("db=%s size=%dB\n", info.DbType, info.SizeBytes)
				meta, err := json.MarshalIndent(info.Metadata, "", "  ")
				if err != nil {
					return err
				}
				s.printf("%s\n", meta)
				return nil
			},
		},
		"metrics": {
			usage: "metrics", help: "Prints the cache counters in Prometheus format",
			minArgs: 0, maxArgs: 0,
			run: func(s *Shell, _ []string) error {
				s.m.WritePrometheus(s.out)
				return nil
			},
		},
		"help": {
			usage: "help", help: "Prints this help",
			minArgs: 0, maxArgs: 0,
			run: func(s *Shell, _ []string) error {
				names := make([]string, 0, len(s.commands))
				for name := range s.commands {
					names = append(names, name)
				}
				slices.Sort(names)
				for _, name := range names {
					c := s.commands[name]
					s.printf("%-30s %s\n", c.usage, c.help)
				}
				return nil
			},
		},
		"exit": {
			usage: "exit", help: "Leaves the shell",
			minArgs: 0, maxArgs: 0,
			run: func(*Shell, []string) error {
				return errExit
			},
		},
	}
}

// list prints the entries below prefix
func (s *Shell) list(prefix string, limit int, withValues bool) error {
	entries, err := s.m.Scan(prefix, limit)
	if err != nil {
		return err
	}
	slices.SortFunc(entries, func(a, b store.KeyValue) int { return strings.Compare(a.Key, b.Key) })
	for _, e := range entries {
		if withValues {
			s.printf("%s = %s\n", e.Key, e.Value)
		} else {
			s.printf("%s\n", e.Key)
		}
	}
	s.printf("(%d entries)\n", len(entries))
	return nil
}

// cacheKey builds the key for set commands, ttl is optional
func cacheKey(key string, ttl []string) (cache.CacheKey, error) {
	k := cache.CacheKey{Key: key, CacheTime: cache.Forever}
	if len(ttl) == 1 {
		n, err := strconv.ParseUint(ttl[0], 10, 64)
		if err != nil || n == 0 {
			return k, fmt.Errorf("ttl must be a positive number")
		}
		k.CacheTime = n
	}
	return k, nil
}
