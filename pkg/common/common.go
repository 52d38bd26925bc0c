package common

import (
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var (
	idNode     *snowflake.Node
	idNodeOnce sync.Once
)

func node() *snowflake.Node {
	idNodeOnce.Do(func() {
		var err error
		idNode, err = snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
	})
	return idNode
}

// UUIDint64 returns a time ordered unique int64 id
func UUIDint64() int64 {
	return node().Generate().Int64()
}

// UUIDBase32 returns the same kind of id encoded as a short string,
// suitable for file names.
func UUIDBase32() string {
	return node().Generate().Base32()
}

func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

func IsNotEmpty(s string) bool {
	return !IsEmpty(s)
}

// IfEmptyStr returns def when src is blank.
func IfEmptyStr(src string, def string) string {
	if IsEmpty(src) {
		return def
	}
	return src
}
