package common

import (
	"strconv"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	idNode     *snowflake.Node
	idNodeOnce sync.Once
)

func node() *snowflake.Node {
	idNodeOnce.Do(func() {
		n, err := snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
		idNode = n
	})
	return idNode
}

// UUIDint64 returns a time-ordered unique int64 id
func UUIDint64() int64 {
	return node().Generate().Int64()
}

// ParseID parses a decimal id, tolerating surrounding whitespace
func ParseID(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

// IsEmptyOrNA reports blank or placeholder values
func IsEmptyOrNA(val string) bool {
	v := strings.TrimSpace(val)
	return v == "" || strings.EqualFold(v, "N/A")
}
