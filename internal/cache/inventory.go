package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix = "user:name:%s"
)

const (
	UserTTL = 5 * time.Minute
)

func UserKey(username string) string {
	return fmt.Sprintf(UserKeyPrefix, username)
}

func (c *Cache) InvalidateUser(ctx context.Context, username string) {
	c.Invalidate(ctx, UserKey(username))
}
