package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseChatIDArg extracts a signed chat id from a command argument
// string. Group and channel ids are negative in Telegram's convention;
// the value is kept as an opaque signed integer.
func ParseChatIDArg(args string) (int64, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("chat ID is required")
	}
	id, err := strconv.ParseInt(strings.Fields(s)[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat ID %q", s)
	}
	return id, nil
}

// ParseLimitArg extracts the optional row count of /recent, defaulting
// to 10 and capped at 50 to keep replies readable.
func ParseLimitArg(args string) (int, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 10, nil
	}
	n, err := strconv.Atoi(strings.Fields(s)[0])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	if n > 50 {
		n = 50
	}
	return n, nil
}
