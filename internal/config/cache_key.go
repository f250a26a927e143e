package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionKey returns the key marking one issued token (by JTI) as live.
func (r *CacheKeyStruct) SessionKey(uid, jti string) string {
	return fmt.Sprintf("session:%s:%s", uid, jti)
}

// SessionPattern matches every live session key of uid.
func (r *CacheKeyStruct) SessionPattern(uid string) string {
	return fmt.Sprintf("session:%s:*", uid)
}

// RoleKey returns the cache key for a user's resolved role.
func (r *CacheKeyStruct) RoleKey(uid string) string {
	return fmt.Sprintf("role:%s", uid)
}

// DraftKey returns the cache key holding one editor draft.
func (r *CacheKeyStruct) DraftKey(authorID, draftID string) string {
	return fmt.Sprintf("draft:%s:%s", authorID, draftID)
}

// DraftIndexKey returns the set of draft IDs owned by an author.
func (r *CacheKeyStruct) DraftIndexKey(authorID string) string {
	return fmt.Sprintf("drafts:%s", authorID)
}

// TestPaperKey returns the cache key for a loaded test paper.
func (r *CacheKeyStruct) TestPaperKey(testID string) string {
	return fmt.Sprintf("test:%s:paper", testID)
}

// ViewerCursorKey returns the cache key for a student's position in a test.
func (r *CacheKeyStruct) ViewerCursorKey(uid, testID string) string {
	return fmt.Sprintf("viewer:%s:%s", uid, testID)
}

// SessionEventsChannel is the Redis PubSub channel carrying session changes.
func (r *CacheKeyStruct) SessionEventsChannel() string {
	return "session:events"
}

var CacheKey = NewCacheKeyStruct()
