package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// QuestionCountKey returns the cache key for the total question count
func (r *CacheKeyStruct) QuestionCountKey() string {
	return "questions:count"
}

// QuestionListVersionKey returns the generation counter key that is bumped
// on every question mutation to invalidate cached list pages
func (r *CacheKeyStruct) QuestionListVersionKey() string {
	return "questions:version"
}

// QuestionPageKey returns the cache key for one page of the question list
// under a given list generation
func (r *CacheKeyStruct) QuestionPageKey(version int64, page, limit int) string {
	return fmt.Sprintf("questions:v%d:page:%d:%d", version, page, limit)
}

var CacheKey = NewCacheKeyStruct()
