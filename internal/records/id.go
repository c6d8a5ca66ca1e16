package records

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/common"
)

// TemporaryIDPrefix marks ids minted locally while the remote was unreachable.
const TemporaryIDPrefix = "local-"

var now = time.Now

// NewTemporaryID returns a time-based id with a random suffix, unique within
// the local store.
func NewTemporaryID() string {
	suffix, err := common.MakeRandHexString(4)
	if err != nil {
		suffix = fmt.Sprintf("%08x", now().UnixNano()&0xffffffff)
	}
	return fmt.Sprintf("%s%d-%s", TemporaryIDPrefix, now().UnixNano(), suffix)
}

// IsTemporaryID reports whether id was minted by NewTemporaryID.
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, TemporaryIDPrefix)
}
