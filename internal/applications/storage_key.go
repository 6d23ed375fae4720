package applications

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PublicKeyPrefix is the bucket sub-path CV files are written under.
const PublicKeyPrefix = "public/"

const (
	base36Alphabet    = "0123456789abcdefghijklmnopqrstuvwxyz"
	fallbackSuffixLen = 7
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// StorageKey builds public/<token>-<Name-With-Dashes>.<ext>.
func StorageKey(token, applicantName, fileName string) string {
	name := whitespaceRun.ReplaceAllString(strings.TrimSpace(applicantName), "-")
	name = strings.NewReplacer("/", "-", `\`, "-").Replace(name)
	return fmt.Sprintf("%s%s-%s.%s", PublicKeyPrefix, token, name, FileExtension(fileName))
}

// FileExtension returns the lowercase text after the last dot of name, or the
// whole name when it has no dot.
func FileExtension(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

// NewToken returns a random UUID, falling back to <unix-millis>-<7 base36>
// when the UUID source fails.
func NewToken() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}
	return fallbackToken(time.Now())
}

func fallbackToken(now time.Time) string {
	buf := make([]byte, fallbackSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", now.UnixMilli())
	}
	out := make([]byte, fallbackSuffixLen)
	for i := range buf {
		out[i] = base36Alphabet[int(buf[i])%len(base36Alphabet)]
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), out)
}
